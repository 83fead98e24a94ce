package loader

// loaderBackend decodes one manifest format. Concrete implementations (tomlLoaderBackend,
// yamlLoaderBackend) reject fields the Manifest types do not know.
type loaderBackend interface {
	// Decode parses raw manifest bytes.
	//
	// Parameters:
	//   - data: the manifest file contents
	//
	// Returns:
	//   - *Manifest: the decoded manifest, without its path
	//   - error: a syntax or unknown-field error
	Decode(data []byte) (*Manifest, error)
}
