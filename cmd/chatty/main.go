package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/HopeAero/chatty-app/internal/api"
	"github.com/HopeAero/chatty-app/internal/auth"
	"github.com/HopeAero/chatty-app/internal/db"
	"github.com/HopeAero/chatty-app/internal/models"
	"github.com/HopeAero/chatty-app/internal/store"
	"github.com/HopeAero/chatty-app/internal/transport"
	"github.com/HopeAero/chatty-app/internal/views"
)

func main() {
	godotenv.Load()

	serverURL := "http://localhost:3001"
	if u := os.Getenv("CHATTY_SERVER_URL"); u != "" {
		serverURL = u
	}

	configDir := os.Getenv("CHATTY_CONFIG_DIR")
	if configDir == "" {
		configDir = filepath.Join(os.Getenv("HOME"), ".config", "chatty")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		log.Fatalf("Failed to create config directory: %v", err)
	}

	database, err := db.NewClientDB(filepath.Join(configDir, "client.db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	command := "chat"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "chat":
		runChat(serverURL, database)
	case "login":
		runLogin(database)
	case "logout":
		if err := auth.Clear(database); err != nil {
			log.Fatalf("Failed to clear session: %v", err)
		}
		fmt.Println("Logged out.")
	case "register":
		runRegister(serverURL)
	default:
		fmt.Fprintf(os.Stderr, "Usage: chatty [chat|login|logout|register]\n")
		os.Exit(2)
	}
}

// wsURL derives the websocket endpoint from the backend base URL.
func wsURL(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil {
		return serverURL + "/ws"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}

func runLogin(database *db.ClientDB) {
	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	token := prompt(reader, "Token: ")
	if username == "" || token == "" {
		log.Fatalf("Both username and token are required")
	}

	if err := auth.Store(database, auth.Credentials{Username: username, Token: token}); err != nil {
		log.Fatalf("Failed to store session: %v", err)
	}
	fmt.Println("Session stored. Run 'chatty' to start chatting.")
}

func runRegister(serverURL string) {
	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	password := prompt(reader, "Password: ")
	confirm := prompt(reader, "Confirm password: ")

	flow := views.NewRegistration(api.NewClient(serverURL, auth.Credentials{}))
	if err := flow.Submit(context.Background(), username, password, confirm); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("Account created. Please log in with 'chatty login'.")
}

func runChat(serverURL string, database *db.ClientDB) {
	creds, err := auth.Load(database)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			log.Fatalf("No session found. Run 'chatty login' first.")
		}
		log.Fatalf("Failed to load session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := transport.NewSession(wsURL(serverURL), creds)
	if err := session.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	apiClient := api.NewClient(serverURL, creds)
	st := store.NewRoomStore()
	directory := views.NewDirectory(apiClient, st)
	conversation := views.NewConversation(creds.Username, session)

	// The store is updated exactly once per inbound message; every view reads
	// projections of it.
	unsubStore := session.SubscribeToMessages(func(msg models.InboundMessage) {
		if !st.ApplyMessage(msg) {
			log.Printf("Dropping message for unknown room %s", msg.RoomID)
		}
	})
	defer unsubStore()

	unsubConv := session.SubscribeToMessages(func(msg models.InboundMessage) {
		if conversation.HandleInbound(msg) {
			printMessage(conversation, msg.AsMessage())
		}
	})
	defer unsubConv()

	if err := directory.Load(ctx); err != nil {
		log.Printf("Error fetching rooms: %v", err)
	}

	fmt.Printf("Signed in as %s. Type /help for commands.\n", creds.Username)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleLine(ctx, line, directory, conversation, session, apiClient) {
				return
			}
		}
	}
}

func handleLine(ctx context.Context, line string, directory *views.Directory, conversation *views.Conversation, session *transport.Session, apiClient *api.Client) bool {
	switch {
	case line == "/quit":
		return false

	case line == "/help":
		fmt.Println("/rooms            list your rooms")
		fmt.Println("/search <term>    filter the room list")
		fmt.Println("/open <n>         open room n from the list")
		fmt.Println("/users            list registered users")
		fmt.Println("/new single <user>")
		fmt.Println("/new group <name> <user> [user...]")
		fmt.Println("/quit             exit")
		fmt.Println("anything else is sent to the open room")

	case line == "/rooms":
		printRooms(directory, conversation)

	case strings.HasPrefix(line, "/search"):
		directory.SetSearch(strings.TrimSpace(strings.TrimPrefix(line, "/search")))
		printRooms(directory, conversation)

	case strings.HasPrefix(line, "/open "):
		openRoom(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/open ")), directory, conversation, session)

	case line == "/users":
		users, err := apiClient.Users(ctx)
		if err != nil {
			log.Printf("Error fetching users: %v", err)
			return true
		}
		for _, u := range users {
			fmt.Println(u.Username)
		}

	case strings.HasPrefix(line, "/new "):
		createRoom(ctx, strings.Fields(strings.TrimPrefix(line, "/new ")), directory, apiClient)

	default:
		if err := conversation.Send(line); err != nil {
			switch {
			case errors.Is(err, views.ErrEmptyMessage):
				// Nothing to send, composer untouched.
			case errors.Is(err, views.ErrNoRoomSelected):
				fmt.Println("Open a room first with /open <n>.")
			default:
				log.Printf("Error sending message: %v", err)
			}
		}
	}
	return true
}

func printRooms(directory *views.Directory, conversation *views.Conversation) {
	rooms := directory.Visible()
	if len(rooms) == 0 {
		fmt.Println("No rooms.")
		return
	}
	for i, room := range rooms {
		last := "No hay mensajes"
		if room.LastMessage != nil {
			last = room.LastMessage.Contents
		}
		name := room.DisplayName(ownMemberID(room, conversation))
		fmt.Printf("%2d. %-24s %s\n", i+1, name, last)
	}
}

// ownMemberID resolves the caller's member id within a listed room so the
// directory can label single chats with the other party's name.
func ownMemberID(room models.Room, conversation *views.Conversation) string {
	if member, ok := room.MemberByUsername(conversation.Username()); ok {
		return member.UserID
	}
	return ""
}

func openRoom(ctx context.Context, arg string, directory *views.Directory, conversation *views.Conversation, session *transport.Session) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("Usage: /open <n>")
		return
	}
	rooms := directory.Visible()
	if index < 1 || index > len(rooms) {
		fmt.Printf("No room %d in the list.\n", index)
		return
	}

	room, err := directory.Select(ctx, rooms[index-1].ID)
	if err != nil {
		log.Printf("Error fetching room details: %v", err)
		return
	}

	if err := session.JoinRoom(room.ID); err != nil {
		log.Printf("Error joining room: %v", err)
	}

	conversation.SetRoom(room)
	fmt.Printf("-- %s --\n", conversation.Title())
	for _, msg := range conversation.Messages() {
		printMessage(conversation, msg)
	}
}

func createRoom(ctx context.Context, args []string, directory *views.Directory, apiClient *api.Client) {
	flow := views.NewCreateRoomFlow(apiClient)
	if err := flow.Load(ctx); err != nil {
		log.Printf("Error fetching users: %v", err)
		return
	}

	switch {
	case len(args) >= 2 && args[0] == "single":
		flow.SetType(models.RoomSingle)
		flow.Toggle(args[1])
	case len(args) >= 3 && args[0] == "group":
		flow.SetType(models.RoomGroup)
		flow.SetName(args[1])
		for _, username := range args[2:] {
			flow.Toggle(username)
		}
	default:
		fmt.Println("Usage: /new single <user> | /new group <name> <user> [user...]")
		return
	}

	room, err := flow.Submit(ctx)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	fmt.Printf("Created room %s.\n", room.ID)

	if err := directory.Load(ctx); err != nil {
		log.Printf("Error refreshing rooms: %v", err)
	}
}

func printMessage(conversation *views.Conversation, msg models.Message) {
	sender := conversation.SenderName(msg)
	if conversation.IsOwn(msg) {
		sender = "you"
	}
	if sender == "" {
		sender = msg.SenderID
	}
	fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04"), sender, msg.Contents)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
