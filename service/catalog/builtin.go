package catalog

import "github.com/khaledhikmat/exhibit-guide/model"

var builtin = []model.Exhibit{
	{
		Label:            "Climate Changed",
		Title:            "Climate Changed",
		ShortDescription: "Explore how Earth's climate is shifting, how everyday actions affect it, and what we can do to drive climate action.",
	},
	{
		Label:            "Dialogue with Time",
		Title:            "Dialogue with Time – Embrace Ageing",
		ShortDescription: "Experience-based gallery led by seniors that challenges stereotypes and invites visitors to rethink ageing.",
	},
	{
		Label:            "Earth Alive",
		Title:            "Earth Alive",
		ShortDescription: "Hands-on gallery revealing the forces and processes that shape our dynamic planet, from quakes to weather systems.",
	},
	{
		Label:            "Energy Story",
		Title:            "Energy Story",
		ShortDescription: "Permanent exhibition on where energy comes from, how it is transformed, and how we use it in modern life.",
	},
	{
		Label:            "Everyday Science",
		Title:            "Everyday Science",
		ShortDescription: "See how science appears in daily life, from the sky above to microscopic worlds that we usually cannot see.",
	},
	{
		Label:            "Future Makers",
		Title:            "Future Makers",
		ShortDescription: "Showcase of modern engineering and how engineers design solutions that impact individuals, industry and society.",
	},
	{
		Label:            "Going Viral",
		Title:            "Going Viral Travelling Exhibition",
		ShortDescription: "Travelling exhibition tracing how science helps us understand viruses and develop tools to handle pandemics.",
	},
	{
		Label:            "Know Your Poo",
		Title:            "Know Your Poo",
		ShortDescription: "Playful but educational journey through the history of toilets, sanitation and how societies manage waste.",
	},
	{
		Label:            "Laser Maze",
		Title:            "Laser Maze Challenge",
		ShortDescription: "Action game where visitors dodge and weave through a room filled with laser beams to test agility and timing.",
	},
	{
		Label:            "Phobia",
		Title:            "Phobia²: The Science of Fear",
		ShortDescription: "Immersive spaces that let you face common fears while explaining the psychology and biology behind them.",
	},
	{
		Label:            "Mirror Maze",
		Title:            "Professor Crackitt's Light Fantastic Mirror Maze",
		ShortDescription: "A life-size labyrinth of mirrors with infinite reflections, built around a physics-based challenge.",
	},
	{
		Label:            "Savage Garden",
		Title:            "Savage Garden",
		ShortDescription: "Whimsical village of carnivorous plants that shows how these unusual species trap and digest their prey.",
	},
	{
		Label:            "Smart Nation PlayScape",
		Title:            "Smart Nation PlayScape",
		ShortDescription: "Gamified exhibits explaining how digital technologies work and why they matter for a Smart Nation.",
	},
	{
		Label:            "Some Call It Science",
		Title:            "Some Call It Science",
		ShortDescription: "Play-driven space that encourages curiosity, experimentation and discovery through open-ended science activities.",
	},
	{
		Label:            "Mind Eye",
		Title:            "The Mind's Eye",
		ShortDescription: "Optical illusion gallery showing how our brains can misinterpret what our eyes see.",
	},
	{
		Label:            "Tinkering Studio",
		Title:            "The Tinkering Studio",
		ShortDescription: "Creative maker space where visitors build and experiment with familiar and unusual materials.",
	},
	{
		Label:            "Urban Mutations",
		Title:            "Urban Mutations",
		ShortDescription: "Explores how cities evolve, what challenges they face, and the kinds of urban futures we might design.",
	},
	{
		Label:            "Quanta School",
		Title:            "Quantum School",
		ShortDescription: "Introduces the basic principles of quantum physics, such as superposition and entanglement, and its emerging technologies.",
	},
	{
		Label:            "Bioethics",
		Title:            "Bioethics",
		ShortDescription: "Explores ethical issues raised by AI in healthcare, gene editing, organoid research and biological self-experimentation.",
	},
}
