package domain

// RawDocument is one input file before normalisation: its path, the MIME
// type chosen from its extension, and its bytes.
type RawDocument struct {
	URI      string
	MIMEType string
	Content  []byte
}
