package domain

// WahaNode is one backend automation endpoint hosting WhatsApp sessions.
// Node identity doubles as the container number: the node provisioned first
// is container 1, the second container 2, and so on. ActiveSessions is a
// load hint, not an enforced admission limit.
type WahaNode struct {
	ID             int    `json:"id"`
	URL            string `json:"url"` // e.g. http://waha_core_1:3000
	APIKey         string `json:"-"`
	MaxSessions    int    `json:"max_sessions"`
	ActiveSessions int    `json:"active_sessions"`
}

// ContainerNumber returns the human-facing container label for this node.
// Currently a 1:1 mapping onto the node id.
func (n *WahaNode) ContainerNumber() int {
	return n.ID
}

// HasCapacity reports whether the node is below its soft session limit.
func (n *WahaNode) HasCapacity() bool {
	return n.ActiveSessions < n.MaxSessions
}
