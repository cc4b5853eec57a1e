package indexer

func WithOpenSearchUsername(username string) Option {
	return func(i *Indexer) {
		i.opensearchUsername = username
	}
}

func WithOpenSearchPassword(password string) Option {
	return func(i *Indexer) {
		i.opensearchPassword = password
	}
}

func WithOpenSearchSkipTLS() Option {
	return func(i *Indexer) {
		i.opensearchInsecureSkipVerify = true
	}
}

func WithOcrApiCAPath(path string) Option {
	return func(i *Indexer) {
		i.ocrApiCaPath = path
	}
}

func WithReceiptsIndex(index string) Option {
	return func(i *Indexer) {
		i.receiptsIndex = index
	}
}

// WithLookupSkipTLS disables certificate verification towards the tax
// authority portals.
func WithLookupSkipTLS() Option {
	return func(i *Indexer) {
		i.lookupInsecureSkipVerify = true
	}
}
