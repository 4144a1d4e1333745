package internpool_test

import (
	"fmt"

	"github.com/RowanDark/internpool"
)

func Example() {
	a := internpool.IStr("example.com")
	b := internpool.IStr("example.com")
	fmt.Println(a.Equal(b))

	s := b.Clone().IntoMut()
	s.PushStr(".")
	fmt.Println(s.IsMutable(), s.String())

	a.Release()
	b.Release()
	internpool.CollectGarbage()
	// Output:
	// true
	// true example.com.
}
