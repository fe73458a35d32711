package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/studyhub/client/config"
	"github.com/studyhub/client/internal/api"
	"github.com/studyhub/client/internal/models"
	"github.com/studyhub/client/internal/notify"
	"github.com/studyhub/client/internal/realtime"
	"github.com/studyhub/client/internal/session"
)

func main() {
	var (
		email     = flag.String("email", "", "login email")
		password  = flag.String("password", "", "login password")
		register  = flag.Bool("register", false, "register a new account instead of logging in")
		firstName = flag.String("first", "", "first name (with -register)")
		lastName  = flag.String("last", "", "last name (with -register)")
		recipient = flag.Int64("to", 0, "recipient user id for private chat")
		groupID   = flag.Int64("group", 0, "study group id for group chat")
		logout    = flag.Bool("logout", false, "discard the stored session and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sess, err := session.Open(cfg.Session.File)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	rest := api.New(cfg.API.BaseURL, cfg.API.Timeout, sess)

	if *logout {
		if err := rest.Logout(); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		fmt.Println("Logged out")
		return
	}

	if *email != "" && *password != "" {
		if err := signIn(rest, *register, *firstName, *lastName, *email, *password); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
	}
	if !sess.Authenticated() {
		log.Fatal("Not logged in: pass -email and -password (add -register for a new account)")
	}

	if *recipient == 0 && *groupID == 0 {
		log.Fatal("Nothing to do: pass -to <user id> or -group <group id>")
	}

	rt := realtime.NewClient(realtime.Options{
		BrokerURL:            cfg.Realtime.BrokerURL,
		HeartbeatInterval:    cfg.Realtime.HeartbeatInterval,
		ReconnectInterval:    cfg.Realtime.ReconnectInterval,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		TypingPerSecond:      cfg.Realtime.TypingPerSecond,
	}, sess)
	defer rt.Disconnect()

	rt.On(models.EventNewMessage, func(data json.RawMessage) {
		var msg models.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		fmt.Printf("[%s] %s: %s\n", msg.SentAt.Format("15:04"), msg.SenderName, msg.Content)
	})
	rt.On(models.EventUserStatus, func(data json.RawMessage) {
		var status models.UserStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return
		}
		fmt.Printf("* user %d is now %s\n", status.UserID, strings.ToLower(status.Status))
	})
	rt.On(models.EventTypingIndicator, func(data json.RawMessage) {
		var typing models.TypingPayload
		if err := json.Unmarshal(data, &typing); err != nil {
			return
		}
		if typing.IsTyping {
			fmt.Printf("* user %d is typing...\n", typing.SenderID)
		}
	})

	notifications := notify.NewStore(rest)
	notifications.Attach(rt)
	rt.On(models.EventNewNotification, func(data json.RawMessage) {
		var n models.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			return
		}
		fmt.Printf("* %s: %s\n", n.Title, n.Message)
	})

	if err := rt.Connect(); err != nil {
		log.Printf("Realtime connection failed, falling back to REST: %v", err)
	}
	if err := notifications.Load(); err != nil {
		log.Printf("Failed to load notifications: %v", err)
	} else if unread := notifications.UnreadCount(); unread > 0 {
		fmt.Printf("You have %d unread notifications\n", unread)
	}

	if *groupID != 0 && rt.IsConnected() {
		if _, err := rt.SubscribeToGroup(*groupID, func(body json.RawMessage) {
			var msg models.ChatMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				return
			}
			fmt.Printf("[%s] #%d %s: %s\n", msg.SentAt.Format("15:04"), msg.StudyGroupID, msg.SenderName, msg.Content)
		}); err != nil {
			log.Printf("Group subscribe failed: %v", err)
		}
	}

	if *recipient != 0 {
		history, err := rest.ChatHistory(*recipient, 20)
		if err != nil {
			log.Printf("Failed to load chat history: %v", err)
		}
		for _, msg := range history {
			fmt.Printf("[%s] %s: %s\n", msg.SentAt.Format("15:04"), msg.SenderName, msg.Content)
		}
	}

	fmt.Println("Type a message and press enter (ctrl-d to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		content := strings.TrimSpace(scanner.Text())
		if content == "" {
			continue
		}
		rt.SendTypingIndicator(*recipient, *groupID, false)
		if err := send(rt, rest, *recipient, *groupID, content); err != nil {
			log.Printf("Send failed: %v", err)
		}
	}
}

func signIn(rest *api.Client, register bool, firstName, lastName, email, password string) error {
	if register {
		resp, err := rest.Register(models.RegisterRequest{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Password:  password,
		})
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	}
	resp, err := rest.Login(email, password)
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// send tries the realtime socket first and falls back to REST when the
// socket is down
func send(rt *realtime.Client, rest *api.Client, recipient, groupID int64, content string) error {
	var err error
	if groupID != 0 {
		err = rt.SendGroupMessage(groupID, content, models.MessageTypeText)
	} else {
		err = rt.SendPrivateMessage(recipient, content, models.MessageTypeText)
	}
	if err == nil {
		return nil
	}
	if !errors.Is(err, realtime.ErrNotConnected) {
		return err
	}

	_, err = rest.SendMessage(models.SendMessagePayload{
		RecipientID:  recipient,
		StudyGroupID: groupID,
		Content:      content,
		MessageType:  models.MessageTypeText,
	})
	return err
}
