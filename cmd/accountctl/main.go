package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "registryd address to request",
}

var flagID = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "identity to register or recover",
}

var flagAppID = &cli.StringFlag{
	Name:  "app-id",
	Usage: "optional application scope for the identity",
}

var flagPin = &cli.UintFlag{
	Name:     "pin",
	Required: true,
	Usage:    "numeric pin protecting the custodial key-pair",
}

func main() {
	app := &cli.App{
		Name:  "accountctl",
		Usage: "Client for the custodial key registration API",
		Flags: []cli.Flag{
			flagServerAddr,
			flagID,
			flagAppID,
			flagPin,
		},
		Commands: []*cli.Command{
			{
				Name:        "register",
				Description: "Register a new custodial key-pair for the identity",
				Action: func(cCtx *cli.Context) error {
					return call(cCtx, "/api/v1/register")
				},
			},
			{
				Name:        "recover",
				Description: "Recover the public key registered for the identity",
				Action: func(cCtx *cli.Context) error {
					return call(cCtx, "/api/v1/recover")
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func call(cCtx *cli.Context, path string) error {
	payload, err := json.Marshal(map[string]any{
		"id":    cCtx.String(flagID.Name),
		"appId": cCtx.String(flagAppID.Name),
		"pin":   cCtx.Uint(flagPin.Name),
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(cCtx.String(flagServerAddr.Name)+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed reading response: %w", err)
	}

	fmt.Printf("%s\n", bytes.TrimSpace(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
