package defs

// Common labels for logging
const (
	LabelComponent = "component"
	LabelName      = "name"
	LabelPart      = "part"

	LabelAddress      = "address"
	LabelTransport    = "transport"
	LabelClient       = "client"
	LabelClientNumber = "clientNumber"
	LabelErrorClass   = "errClass"

	LabelLocal  = "local"
	LabelRemote = "remote"
)

// UnknownPeer is displayed in place of a peer address that cannot be resolved
const UnknownPeer = "unknown peer"
