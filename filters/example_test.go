package filters

import "fmt"

func ExampleFilter_Match() {
	f, _ := New(Options{Patterns: []string{"*.example.com", "!dev.*"}, Separators: []rune{'.'}})
	fmt.Println(f.Match("www.example.com"), f.Match("dev.example.com"), f.Match("example.org"))
	// Output: true false false
}
