//go:build !unix

package input

import (
	"errors"
	"os"
)

func mapFile(*os.File, int) ([]byte, func() error, error) {
	return nil, nil, errors.New("input: memory mapping not supported")
}
