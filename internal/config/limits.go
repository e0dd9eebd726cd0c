package config

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProjectNameLength = 255

	// MaxNodeNameLength is the maximum length for file and folder names.
	// Same bound as project names for consistency.
	MaxNodeNameLength = 255

	// MaxDescriptionLength is the maximum length for file descriptions.
	MaxDescriptionLength = 2000

	// MaxChunkBytes caps a single upload chunk. Clients split larger files.
	MaxChunkBytes = 8 << 20

	// MaxUploadBytes caps an assembled upload payload.
	MaxUploadBytes = 512 << 20
)
