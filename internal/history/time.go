package history

import "time"

func nowUnix() uint32 {
	return uint32(time.Now().Unix())
}
