package markup

// MemberResolver maps a mention handle (a Trello username) to a member ID.
type MemberResolver interface {
	MemberID(handle string) (string, bool)
}

// ShortCodeResolver maps a member ID to the short code used in
// [~shortcode] mentions.
type ShortCodeResolver interface {
	ShortCode(memberID string) (string, bool)
}

// URLRemapper maps a remote URL to a local reference, typically a cached
// copy of an attachment.
type URLRemapper interface {
	Remap(url string) (string, bool)
}

// Lookups bundles the read-only services a translation consults. Any of
// them may be nil; a nil service behaves like a lookup that never hits.
type Lookups struct {
	Members     MemberResolver
	ShortCodes  ShortCodeResolver
	Attachments URLRemapper
}

// MemberMap is a MemberResolver backed by a handle -> member ID map.
type MemberMap map[string]string

func (m MemberMap) MemberID(handle string) (string, bool) {
	id, ok := m[handle]
	return id, ok
}

// ShortCodeMap is a ShortCodeResolver backed by a member ID -> short code map.
type ShortCodeMap map[string]string

func (m ShortCodeMap) ShortCode(memberID string) (string, bool) {
	code, ok := m[memberID]
	return code, ok && code != ""
}

// URLMap is a URLRemapper backed by a URL -> local reference map.
type URLMap map[string]string

func (m URLMap) Remap(url string) (string, bool) {
	local, ok := m[url]
	return local, ok
}

// URLRemapFunc adapts a function to URLRemapper.
type URLRemapFunc func(url string) (string, bool)

func (f URLRemapFunc) Remap(url string) (string, bool) {
	return f(url)
}

// resolveMention follows handle -> member ID -> short code.
func (l Lookups) resolveMention(handle string) (string, bool) {
	if l.Members == nil || l.ShortCodes == nil {
		return "", false
	}
	id, ok := l.Members.MemberID(handle)
	if !ok {
		return "", false
	}
	return l.ShortCodes.ShortCode(id)
}
