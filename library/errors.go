package library

import (
	"github.com/cwida/gfe-driver/gfelog"
)

func notSupported(lib GraphLibrary, tier string) error {
	return gfelog.Newf(gfelog.NotSupported, "%q does not implement the %s tier", lib.Descriptor().Name, tier)
}
