package sharedpv

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// comparable
// tags channels, operations and monitors in debug traces;
// ids from the same source are ordered by create time
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func (self Id) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", self[0:4], self[4:6], self[6:8], self[8:10], self[10:16])
}
