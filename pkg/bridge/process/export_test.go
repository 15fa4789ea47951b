package process

import "github.com/spf13/afero"

var Snapshot = snapshot

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}
