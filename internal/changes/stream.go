package changes

// Stream is the change-notification collaborator: row-level update and
// delete events for the message table, delivered independently of the live
// channel. Callbacks receive the raw event payload; shape validation is the
// caller's job.
type Stream interface {
	OnUpdate(func(raw []byte))
	OnDelete(func(raw []byte))
	RemoveAllListeners()
}
