package image

// Caller-facing rejection messages. They are returned verbatim in 400 bodies.
const (
	MsgNoFile      = "No image file provided"
	MsgInvalidType = "Invalid file type. Please upload an image file."
	MsgTooLarge    = "File size too large. Maximum size is 10MB."
)

// Candidate describes an upload before its bytes are trusted.
type Candidate struct {
	Present  bool
	FileName string
	Size     int64
}

// Inspection is the outcome of sniffing the upload content.
type Inspection struct {
	Format string
	Width  int
	Height int
}
