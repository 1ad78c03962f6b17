package fields

// EncryptedFlag marks a payload whose blob was encrypted by the caller and
// must be forwarded to the vendor as opaque ciphertext.
const EncryptedFlag uint32 = 1 << 0

// MessagePayload is the caller-supplied message body. Immutable once
// submitted; redeliveries append a fresh copy to the notification history.
type MessagePayload struct {
	Topic string `json:"topic,omitempty"`
	Flags uint32 `json:"flags"`
	Blob  string `json:"blob"`
}

func (p MessagePayload) IsEncrypted() bool {
	return p.Flags&EncryptedFlag == EncryptedFlag
}
