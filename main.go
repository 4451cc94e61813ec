package main

import "squeeze/cmd"

//	@title			squeeze
//	@version		1.0
//	@description	Resize, convert and compress images and PDFs through ImageMagick and Ghostscript

// @BasePath	/
func main() {
	cmd.Execute()
}
