package filesystem

type (
	Reader interface {
		ReadJSON(path string, target any) error
	}
	Writer interface {
		WriteBytes(path string, data []byte) error
		AppendBytes(path string, data []byte) error
	}
)
