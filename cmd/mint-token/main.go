// Command mint-token prints a bearer token for a member, signed with the
// server's JWT_SECRET. Useful for local testing and scripts.
//
// With -check, the token is also sent to a running server, which must accept
// it and report the member's groups.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/api"
	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/config"
	"github.com/mmynk/groupledger/pkg/logging"
)

func main() {
	envFile := flag.String("env", ".env", "path to the .env file")
	member := flag.String("member", "", "member ID to put in the token (required)")
	name := flag.String("name", "", "display name")
	check := flag.String("check", "", "server URL to verify the token against, e.g. http://localhost:8080")
	flag.Parse()

	logging.Setup("warn", "text")

	if *member == "" {
		fmt.Fprintln(os.Stderr, "usage: mint-token -member <id> [-name <name>] [-env <file>] [-check <url>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL).Generate(*member, *name)
	if err != nil {
		slog.Error("Failed to sign token", "error", err)
		os.Exit(1)
	}

	if *check != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		groups, err := checkToken(ctx, api.NewClient(http.DefaultClient, *check), token)
		if err != nil {
			slog.Error("Server rejected token", "server", *check, "error", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "token accepted by %s, %s is in %d group(s)\n", *check, *member, groups)
	}

	fmt.Println(token)
}

// checkToken lists the member's groups with token and returns how many there
// are.
func checkToken(ctx context.Context, client *api.Client, token string) (int, error) {
	req := connect.NewRequest(&api.ListGroupsRequest{})
	req.Header().Set("Authorization", "Bearer "+token)
	resp, err := client.ListGroups(ctx, req)
	if err != nil {
		return 0, err
	}
	return len(resp.Msg.Groups), nil
}
