package cache

// ScopedKeyer prefixes every key of an inner Keyer. Deployments that share
// one Redis instance set distinct prefixes through the [cache] prefix
// option so their reports never collide.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// Prefix returns the prefix put in front of every key.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

func (k *ScopedKeyer) GraphKey(graphHash string) string {
	return k.prefix + k.inner.GraphKey(graphHash)
}

func (k *ScopedKeyer) ReportKey(graphHash, event string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(graphHash, event, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
