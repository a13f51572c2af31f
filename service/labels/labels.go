package labels

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
)

var lineSplit = regexp.MustCompile(`\r?\n`)

// Load fetches the newline-delimited label list once. The source is either an
// http(s) URL or a file path.
func Load(ctx context.Context, source string) ([]string, error) {
	if source == "" {
		return nil, xerrors.New("no labels source")
	}

	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, xerrors.New(fmt.Sprintf("failed to load labels from %s", source), err)
	}

	return Parse(string(data)), nil
}

func Parse(text string) []string {
	labels := []string{}
	for _, line := range lineSplit.Split(text, -1) {
		if l := strings.TrimSpace(line); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, xerrors.New(fmt.Sprintf("labels HTTP %d", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}
