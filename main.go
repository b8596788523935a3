package main

import (
	"github.com/ColonelBlimp/azul-plugin-qrcode/cmd"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
