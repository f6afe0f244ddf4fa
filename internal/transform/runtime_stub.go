//go:build !govips || !cgo

package transform

func Startup() error {
	return nil
}

func Shutdown() {}

func newTransformer() (Transformer, error) {
	return stdTransformer{}, nil
}
