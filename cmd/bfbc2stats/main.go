// Command bfbc2stats looks up one or more BFBC2/BFBC/BF1943 players by
// screen name and prints their stats. One flag-selected backend, one
// FESL session, one player's stats fetched at a time over it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/config"
	"github.com/cetteup/bfbc2-statsd-go/fesl"
	"github.com/cetteup/bfbc2-statsd-go/internal/gwlog"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

func main() {
	var (
		game       = flag.String("game", "bfbc2", "game backend: bfbc2, bfbc or bf1943")
		platform   = flag.String("platform", "pc", "platform: pc, ps3 or xbox360")
		username   = flag.String("username", "", "EA account username (email, for bf1943)")
		password   = flag.String("password", "", "EA account password")
		persona    = flag.String("persona", "", "persona name (bf1943 only)")
		players    = flag.String("players", "", "comma-separated list of screen names to look up")
		statKeys   = flag.String("keys", "", "comma-separated stat keys (defaults to bfconst.StatsKeys)")
		configPath = flag.String("config", "", "optional override config file")
		timeout    = flag.Duration("timeout", 5*time.Second, "connect/read timeout")
	)
	flag.Parse()

	if *username == "" || *password == "" || (*players == "" && *game != "bf1943") {
		fmt.Fprintln(os.Stderr, "usage: bfbc2stats -username=... -password=... -players=name1,name2")
		os.Exit(2)
	}

	var overrides *config.Overrides
	if *configPath != "" {
		var err error
		overrides, err = config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	logger := gwlog.New(os.Stderr, gwlog.Info)
	var names []string
	if *players != "" {
		names = strings.Split(*players, ",")
	}
	var keys []string
	if *statKeys != "" {
		keys = strings.Split(*statKeys, ",")
	}

	err := run(*game, *platform, *username, *password, *persona, names, keys, overrides.Timeout(*timeout), logger)
	if err != nil {
		log.Fatal(err)
	}
}

func run(game, platformName, username, password, persona string, names, keys []string, timeout time.Duration, logger *gwlog.Logger) error {
	if game == "bf1943" {
		return runRome(username, password, persona, timeout, logger)
	}

	plat, err := parsePlatform(platformName)
	if err != nil {
		return err
	}
	backend, ns, err := resolveBackend(game, plat)
	if err != nil {
		return err
	}

	client := fesl.New(backend, username, password, timeout, fesl.WithLogger(logger))
	defer client.Close()

	personas, err := client.LookupUserIdentifiers(names, ns, bfconst.LookupByName)
	if err != nil {
		return fmt.Errorf("looking up players: %w", err)
	}

	return fetchAndPrintStats(client, personas, keys)
}

// runRome logs into Project Rome's FESL backend and prints the persona's
// identity: Rome doesn't support player lookup/search/stats for other
// players, so there's no list of players to fan out over here.
func runRome(email, password, persona string, timeout time.Duration, logger *gwlog.Logger) error {
	client := fesl.NewRomeClient(email, password, persona, timeout, fesl.WithLogger(logger))
	defer client.Close()

	lkey, err := client.GetLKey()
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	fmt.Printf("logged in persona %q, lkey=%s\n", persona, lkey)
	return nil
}

// fetchAndPrintStats fetches every persona's stats one at a time and
// prints each result as it completes. personas share a single FESL
// session, which (like the underlying TCP connection) is single-owner and
// synchronous per connection: concurrent GetStats calls would race on the
// session's transaction id counter and interleave request/response bytes
// on the wire, so this has to stay a plain loop rather than a fan-out.
func fetchAndPrintStats(client *fesl.Client, personas []map[string]payload.ParsedValue, keys []string) error {
	for _, p := range personas {
		name, _ := p["name"].(string)
		// parseMapUserLookup decodes every field as a raw (unquoted)
		// string, so userId arrives as "12345", not an int.
		userIDStr, _ := p["userId"].(string)
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			return fmt.Errorf("persona %q: invalid userId %q: %w", name, userIDStr, err)
		}

		stats, err := client.GetStats(userID, keys)
		if err != nil {
			return fmt.Errorf("fetching stats for %q: %w", name, err)
		}

		out, err := json.Marshal(map[string]interface{}{"name": name, "userId": userID, "stats": stats})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

func parsePlatform(name string) (bfconst.Platform, error) {
	switch strings.ToLower(name) {
	case "pc":
		return bfconst.PlatformPC, nil
	case "ps3":
		return bfconst.PlatformPS3, nil
	case "xbox360":
		return bfconst.PlatformXbox360, nil
	default:
		return 0, fmt.Errorf("unknown platform %q", name)
	}
}

func resolveBackend(game string, plat bfconst.Platform) (bfconst.Backend, bfconst.Namespace, error) {
	var backends map[bfconst.Platform]bfconst.Backend
	var ns bfconst.Namespace
	switch game {
	case "bfbc2":
		backends = bfconst.BadCompany2
		ns = bfconst.NamespaceBattlefield
	case "bfbc":
		backends = bfconst.BadCompany
		switch plat {
		case bfconst.PlatformXbox360:
			ns = bfconst.NamespaceXBLSub
		default:
			ns = bfconst.NamespacePS3Sub
		}
	default:
		return bfconst.Backend{}, "", fmt.Errorf("unknown game %q", game)
	}

	backend, ok := backends[plat]
	if !ok {
		return bfconst.Backend{}, "", fmt.Errorf("game %q has no backend for platform %q", game, plat)
	}
	return backend, ns, nil
}
