package port

// EntityCache is the normalized response cache.
type EntityCache interface {
	Identify(typeName string, payload []byte) (string, error)
	Write(typeName string, payload []byte) (string, error)
	Read(key string) ([]byte, bool)
	WriteField(typeName, field string, args map[string]any, payload []byte) error
	ReadField(typeName, field string, args map[string]any) ([]byte, bool)
	Invalidate()
}
