package capture

import (
	"context"
	"strings"
)

type Backend interface {
	Open(context.Context, string) (Session, error)
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockBackend{}
}

func Resolve(t string) Backend {
	switch strings.ToLower(t) {
	case "mock":
		return Mock()
	default:
		return Default()
	}
}
