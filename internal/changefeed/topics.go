package changefeed

import "strings"

// Topics builds change feed topic names under a prefix.
type Topics struct {
	Prefix string
}

// Changed is the topic for changes to one entity kind.
func (t Topics) Changed(kind string) string {
	return t.Prefix + "/" + kind + "/changed"
}

// AllChanged matches the changes of every kind.
func (t Topics) AllChanged() string {
	return t.Prefix + "/+/changed"
}

// KindOf extracts the kind from a Changed topic.
func (t Topics) KindOf(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", false
	}
	kind, ok := strings.CutSuffix(rest, "/changed")
	if !ok || kind == "" || strings.Contains(kind, "/") {
		return "", false
	}
	return kind, true
}
