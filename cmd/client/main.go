package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/client"
	"github.com/dmitrijs2005/sharevault/internal/client/config"
)

const usage = `usage: sharevault-client [-a addr] [-k token] [-t timeout] [-c file] <command> [args]

commands:
  ping
  csps
  csp-shares <csp_id>
  shares [user_id]
  share <storage_type> <unique_id>
  devices
  decline <device_id> <public_device_key>
  remove <storage_type> <storage_unique_id> <share_unique_id>`

var errUsage = errors.New(usage)

func main() {
	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v\n%s", err, usage)
	}

	c, err := client.New(cfg.ServerEndpointAddr, cfg.AccessToken, client.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer c.Close()

	if err := run(context.Background(), c, args, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	var (
		out any
		err error
	)

	switch cmd, rest := args[0], args[1:]; {
	case cmd == "ping" && len(rest) == 0:
		err = c.Ping(ctx)
		out = "OK"
	case cmd == "csps" && len(rest) == 0:
		out, err = c.ListCloudStorages(ctx)
	case cmd == "csp-shares" && len(rest) == 1:
		out, err = c.ListCspShares(ctx, rest[0])
	case cmd == "shares" && len(rest) <= 1:
		userID := ""
		if len(rest) == 1 {
			userID = rest[0]
		}
		out, err = c.ListShares(ctx, userID)
	case cmd == "share" && len(rest) == 2:
		out, err = c.GetShare(ctx, rest[0], rest[1])
	case cmd == "devices" && len(rest) == 0:
		out, err = c.ListDeviceKeys(ctx)
	case cmd == "decline" && len(rest) == 2:
		out, err = c.DeclineDevice(ctx, rest[0], rest[1])
	case cmd == "remove" && len(rest) == 3:
		out, err = c.RemoveUserFromShare(ctx, &api.RemoveUserFromShareRequest{
			StorageType:     rest[0],
			StorageUniqueID: rest[1],
			ShareUniqueID:   rest[2],
		})
	default:
		return errUsage
	}
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
