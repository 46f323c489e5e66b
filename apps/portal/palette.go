package main

type palette struct {
	title  func(string) string
	header func(string) string
}

func plain(s string) string { return s }

func ansi(code string) func(string) string {
	return func(s string) string { return "\x1b[" + code + "m" + s + "\x1b[0m" }
}

var (
	lightPalette = palette{title: plain, header: plain}
	darkPalette  = palette{title: ansi("1;97"), header: ansi("1;36")}
)
