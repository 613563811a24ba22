package protomap

import (
	"os"
	"path"

	"github.com/jhump/protoreflect/v2/protoprint"
)

// Render writes the registry's synthesized proto file under outDir.
func Render(r *Registry, outDir string) error {
	pp := protoprint.Printer{}

	fd := r.File()
	fp := path.Join(outDir, fd.Path())
	if err := os.MkdirAll(path.Dir(fp), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return pp.PrintProtoFile(fd, f)
}
