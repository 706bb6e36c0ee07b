package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prepnova/mocktest-backend/internal/tui"
	"golang.org/x/term"
)

// Terminal exam runner. Logs in as a candidate and drives the exam
// over the candidate HTTP API.
func main() {
	var serverURL string
	var email string
	flag.StringVar(&serverURL, "server", "http://localhost:8080", "Backend base URL")
	flag.StringVar(&email, "email", "", "Candidate email (prompted if empty)")
	flag.Parse()

	reader := bufio.NewReader(os.Stdin)

	if email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if email == "" {
		fmt.Println("Error: email is required")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}

	client := tui.NewClient(serverURL)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err = client.Login(ctx, email, string(bytePassword))
	cancel()
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		os.Exit(1)
	}

	program := tea.NewProgram(tui.NewModel(client), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Free the single-device session so the next login is not refused.
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Logout(ctx); err != nil {
		fmt.Printf("Warning: logout failed: %v\n", err)
	}
}
