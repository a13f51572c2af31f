package storage

type IService interface {
	// StoreSnapshot saves a JPEG and returns the URL it is served under.
	StoreSnapshot(name string, jpeg []byte) (string, error)
	Open(name string) (string, error)
}
