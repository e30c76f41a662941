package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/cbodonnell/memorymatch/pkg/client"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/transport"
	"github.com/cbodonnell/memorymatch/pkg/version"
	"github.com/google/uuid"
)

func main() {
	apiURL := flag.String("api", "http://localhost:9090", "Room API base URL")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	roomCode := flag.String("room", "", "Room code to join, empty creates a room")
	difficulty := flag.String("difficulty", "easy", "Difficulty of a created room")
	participantID := flag.String("participant", "", "Participant id, empty lets the server issue one")
	token := flag.String("token", "", "Optional ID token")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel))
	log.Info("Starting client version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lobby := client.NewLobby(client.NewLobbyOptions{BaseURL: *apiURL, Token: *token})
	var room *types.RoomSnapshot
	var me string
	if *roomCode == "" {
		res, err := lobby.CreateRoom(ctx, *participantID, types.Difficulty(*difficulty))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		room, me = &res.Room, res.ParticipantID
	} else {
		res, err := lobby.JoinRoom(ctx, strings.ToUpper(*roomCode), *participantID)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		room, me = &res.Room, res.ParticipantID
	}
	fmt.Printf("Room %s (%s) as %s\n", room.Code, room.Difficulty, me)

	bus, err := transport.NewMQTTBus(transport.NewMQTTBusOptions{
		Broker:   *broker,
		ClientID: "memorymatch-client-" + uuid.NewString(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to MQTT broker: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	session := client.NewSession(client.NewSessionOptions{
		Bus:           bus,
		ParticipantID: me,
		RoomCode:      room.Code,
		Snapshot:      room,
	})
	go func() {
		if err := session.Start(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			stop()
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-session.Events():
				printEvent(e, session.View())
			}
		}
	}()

	fmt.Println("Commands: start, flip N, rematch, cancel, show, leave, quit")
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
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if done := runCommand(ctx, session, strings.Fields(line)); done {
				return
			}
		}
	}
}

// runCommand executes one stdin command and reports whether the client should exit.
func runCommand(ctx context.Context, session *client.Session, fields []string) bool {
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "start":
		err = session.RequestStart(ctx)
	case "flip":
		if len(fields) != 2 {
			fmt.Println("usage: flip N")
			return false
		}
		position, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			fmt.Printf("invalid position %q\n", fields[1])
			return false
		}
		err = session.RequestFlip(ctx, position)
	case "rematch":
		err = session.RequestRematch(ctx)
	case "cancel":
		err = session.CancelRematch(ctx)
	case "show":
		printBoard(session.View())
	case "leave":
		if err := session.Leave(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return true
	case "quit":
		return true
	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return false
}

func printEvent(e types.Event, view client.View) {
	fmt.Printf("[round %d] %s\n", e.Round, e.Kind)
	switch e.Kind {
	case types.EventDeckReady, types.EventPairResolved, types.EventPairExpired, types.EventTurnChanged:
		printBoard(view)
	case types.EventRoundFinished:
		if view.Result != nil {
			fmt.Printf("winner: %s in %d moves\n", view.Result.WinnerID, view.Result.Moves)
		}
	}
}

func printBoard(view client.View) {
	revealed := make(map[int]bool, len(view.Revealed))
	for _, p := range view.Revealed {
		revealed[p] = true
	}
	matched := make(map[string]bool, len(view.Matched))
	for _, id := range view.Matched {
		matched[id] = true
	}

	cells := make([]string, 0, len(view.Deck))
	for _, card := range view.Deck {
		switch {
		case matched[card.InstanceID]:
			cells = append(cells, fmt.Sprintf("%2d:--", card.Position))
		case revealed[card.Position]:
			cells = append(cells, fmt.Sprintf("%2d:%s", card.Position, card.Symbol))
		default:
			cells = append(cells, fmt.Sprintf("%2d:??", card.Position))
		}
	}
	for i := 0; i < len(cells); i += 4 {
		end := i + 4
		if end > len(cells) {
			end = len(cells)
		}
		fmt.Println(strings.Join(cells[i:end], "  "))
	}

	players := make([]string, 0, len(view.Scores))
	for id := range view.Scores {
		players = append(players, id)
	}
	sort.Strings(players)
	for _, id := range players {
		marker := " "
		if id == view.TurnOwner {
			marker = "*"
		}
		fmt.Printf("%s %s: %d\n", marker, id, view.Scores[id])
	}
	fmt.Printf("phase: %s, moves: %d\n", view.Phase, view.Moves)
}
