package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	global := flag.NewFlagSet("mangashelf", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	c := &apiClient{http: &http.Client{Timeout: 5 * time.Minute}, baseURL: *baseURL}
	cmd, sub, rest := args[0], args[1], args[2:]

	if cmd != "auth" {
		token, err := readToken(*tokenPath)
		if err != nil || token == "" {
			log.Fatalf("token not found, please run: mangashelf auth login")
		}
		c.token = token
	}

	var err error
	switch cmd {
	case "auth":
		err = handleAuth(ctx, c, *tokenPath, sub, rest)
	case "manga":
		err = handleManga(ctx, c, sub, rest)
	case "library":
		err = handleLibrary(ctx, c, sub)
	case "favorites":
		err = handleFavorites(ctx, c, sub, rest)
	case "settings":
		err = handleSettings(ctx, c, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s %s: %v", cmd, sub, err)
	}
}

func handleAuth(ctx context.Context, c *apiClient, tokenPath, sub string, args []string) error {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *username == "" || *password == "" {
			return fmt.Errorf("username and password are required")
		}

		var resp struct {
			Token string `json:"token"`
		}
		payload := map[string]string{"username": *username, "password": *password}
		if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, &resp); err != nil {
			return err
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *username == "" || *email == "" || *password == "" {
			return fmt.Errorf("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		if err := c.do(ctx, http.MethodPost, "/api/auth/register", payload, nil); err != nil {
			return err
		}
		fmt.Println("registered, now run: mangashelf auth login")
	case "logout":
		if token, err := readToken(tokenPath); err == nil && token != "" {
			c.token = token
			if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
				log.Printf("server logout failed: %v", err)
			}
		}
		if err := clearToken(tokenPath); err != nil {
			return err
		}
		fmt.Println("logged out")
	default:
		return fmt.Errorf("usage: mangashelf auth <login|register|logout>")
	}
	return nil
}

func handleManga(ctx context.Context, c *apiClient, sub string, args []string) error {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("manga list", flag.ExitOnError)
		search := fs.String("search", "", "title substring")
		limit := fs.Int("limit", 0, "page size (0 for all)")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		qv := url.Values{}
		if *search != "" {
			qv.Set("search", *search)
		}
		if *limit > 0 {
			qv.Set("limit", strconv.Itoa(*limit))
			qv.Set("offset", strconv.Itoa(*offset))
		}
		path := "/api/mangas/list"
		if len(qv) > 0 {
			path += "?" + qv.Encode()
		}
		return printResponse(ctx, c, http.MethodGet, path, nil)
	case "show", "images", "view":
		fs := flag.NewFlagSet("manga "+sub, flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		_ = fs.Parse(args)
		if *id <= 0 {
			return fmt.Errorf("manga id is required")
		}
		path := "/api/mangas/" + strconv.FormatInt(*id, 10)
		method := http.MethodGet
		switch sub {
		case "images":
			path += "/images"
		case "view":
			path += "/view"
			method = http.MethodPost
		}
		return printResponse(ctx, c, method, path, nil)
	default:
		return fmt.Errorf("usage: mangashelf manga <list|show|images|view>")
	}
}

func handleLibrary(ctx context.Context, c *apiClient, sub string) error {
	if sub != "refresh" {
		return fmt.Errorf("usage: mangashelf library refresh")
	}
	return printResponse(ctx, c, http.MethodPost, "/api/refresh-library", nil)
}

func handleFavorites(ctx context.Context, c *apiClient, sub string, args []string) error {
	switch sub {
	case "list":
		return printResponse(ctx, c, http.MethodGet, "/api/favorites", nil)
	case "add", "remove":
		fs := flag.NewFlagSet("favorites "+sub, flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		_ = fs.Parse(args)
		if *id <= 0 {
			return fmt.Errorf("manga id is required")
		}
		method := http.MethodPost
		if sub == "remove" {
			method = http.MethodDelete
		}
		return printResponse(ctx, c, method, "/api/mangas/"+strconv.FormatInt(*id, 10)+"/favorite", nil)
	default:
		return fmt.Errorf("usage: mangashelf favorites <list|add|remove>")
	}
}

func handleSettings(ctx context.Context, c *apiClient, sub string, args []string) error {
	switch sub {
	case "get":
		return printResponse(ctx, c, http.MethodGet, "/api/settings", nil)
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: mangashelf settings set <key> <value>")
		}
		return printResponse(ctx, c, http.MethodPost, "/api/settings", map[string]string{args[0]: args[1]})
	case "validate":
		if len(args) != 1 {
			return fmt.Errorf("usage: mangashelf settings validate <directory>")
		}
		return printResponse(ctx, c, http.MethodPost, "/api/settings/validate-directory", map[string]string{"directory": args[0]})
	default:
		return fmt.Errorf("usage: mangashelf settings <get|set|validate>")
	}
}

func printResponse(ctx context.Context, c *apiClient, method, path string, payload any) error {
	var resp json.RawMessage
	if err := c.do(ctx, method, path, payload, &resp); err != nil {
		return err
	}
	printJSON(resp)
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func printUsage() {
	fmt.Println("mangashelf [-api URL] [-token FILE] <command> <subcommand> [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  manga list|show|images|view")
	fmt.Println("  library refresh")
	fmt.Println("  favorites list|add|remove")
	fmt.Println("  settings get|set|validate")
}
