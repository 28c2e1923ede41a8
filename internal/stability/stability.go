// Package stability checks whether a candidate file has finished being
// written before the daemon commits to probing and transcoding it.
package stability

import (
	"fmt"
	"os"
	"time"
)

// Check reports whether filePath's size is unchanged across wait.
// A stat failure (e.g. the file vanished mid-copy) is returned as an
// error; a size change is reported as (false, nil), not an error, since
// it just means "try again next cycle".
func Check(filePath string, wait time.Duration) (bool, error) {
	info0, err := os.Stat(filePath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	size0 := info0.Size()

	time.Sleep(wait)

	info1, err := os.Stat(filePath)
	if err != nil {
		return false, fmt.Errorf("stat file after wait: %w", err)
	}
	size1 := info1.Size()

	return size0 == size1, nil
}

// DefaultWindow is the wait interval used by the daemon loop.
const DefaultWindow = 10 * time.Second
