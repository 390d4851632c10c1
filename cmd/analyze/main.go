package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"chatsense/internal/domain"
	"chatsense/internal/engine"
)

// Analiza una conversacion exportada sin levantar el servidor HTTP: parsea el
// archivo, puntua cada mensaje y escribe el analisis como JSON en stdout.
func main() {
	format := flag.String("format", "", "format hint: whatsapp, telegram, discord, imessage or generic")
	selfName := flag.String("self", "", "participant name treated as the account owner")
	pretty := flag.Bool("pretty", true, "indent the JSON output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <transcript-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("reading transcript: %v", err)
	}

	eng := engine.New(nil, nil)
	res, err := eng.AnalyzeConversation(context.Background(), string(raw), domain.Platform(*format), *selfName, nil)
	if err != nil {
		log.Fatalf("analyzing conversation: %v", err)
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", d.Kind, d.Detail)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res.Analysis); err != nil {
		log.Fatalf("encoding analysis: %v", err)
	}
}
