package models

// ProfileContext partitions every conversation, message and invitation.
// A pair of users can hold up to three independent direct conversations,
// one per context, and those must never share messages.
type ProfileContext string

const (
	ContextBasic    ProfileContext = "basic"
	ContextLove     ProfileContext = "love"
	ContextBusiness ProfileContext = "business"
)

func (p ProfileContext) Valid() bool {
	switch p {
	case ContextBasic, ContextLove, ContextBusiness:
		return true
	}
	return false
}

func (p ProfileContext) String() string { return string(p) }

func AllContexts() []ProfileContext {
	return []ProfileContext{ContextBasic, ContextLove, ContextBusiness}
}
