// cmd/tableclient is an interactive terminal client for the blackjack server.
// It drives the HTTP operation set and renders the polled state; all game
// logic stays server-side.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/cardtable/blackjack/internal/game"
)

type client struct {
	base   string
	http   *http.Client
	gameID string
	player string
	token  string
}

func (c *client) post(path string, body, out interface{}) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s", e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// poll fetches the state once the version stamp moved past last.
func (c *client) poll(last int64) (*game.Snapshot, error) {
	resp, err := c.http.Get(fmt.Sprintf("%s/games/%s?last=%d", c.base, c.gameID, last))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil, nil
	case http.StatusOK:
		var snap game.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return nil, err
		}
		return &snap, nil
	default:
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
}

func cardString(r, s string, hidden bool) string {
	if hidden {
		return pterm.Gray("[??]")
	}
	return fmt.Sprintf("[%s%s]", r, s)
}

func render(snap *game.Snapshot, myName string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d/%d\n", snap.CurrentRound, snap.TotalRounds)

	dealer := snap.Dealer
	cards := make([]string, len(dealer.Hand))
	for i, c := range dealer.Hand {
		cards[i] = cardString(c.Rank, c.Suit, c.Hidden)
	}
	fmt.Fprintf(&b, "%s  %s = %d (pts %d)\n", pterm.LightRed(dealer.Name), strings.Join(cards, " "), dealer.Value, dealer.Points)

	for _, p := range snap.Players {
		cards := make([]string, len(p.Hand))
		for i, c := range p.Hand {
			cards[i] = cardString(c.Rank, c.Suit, c.Hidden)
		}
		name := p.Name
		if p.Name == snap.Turn {
			name = pterm.LightCyan(name + " *")
		}
		if p.Name == myName {
			name = pterm.Bold.Sprint(name)
		}
		fmt.Fprintf(&b, "%s  %s = %d (pts %d)\n", name, strings.Join(cards, " "), p.Value, p.Points)
	}

	switch {
	case snap.Finished:
		fmt.Fprintf(&b, "%s\n", pterm.LightGreen(fmt.Sprintf("Match over. Winner(s): %s", strings.Join(snap.Winner, ", "))))
	case snap.Countdown:
		fmt.Fprintln(&b, "Dealing shortly...")
	case snap.DealerPlaying:
		fmt.Fprintln(&b, pterm.LightYellow("Dealer is playing..."))
	case snap.Started:
		fmt.Fprintf(&b, "Turn: %s (%ds limit)\n", snap.Turn, snap.Timer)
	default:
		fmt.Fprintln(&b, "Waiting for players...")
	}
	pterm.DefaultBox.Println(b.String())
}

func main() {
	base := flag.String("server", "http://localhost:8080", "server base URL")
	flag.Parse()

	c := &client{base: *base, http: &http.Client{Timeout: 10 * time.Second}}

	name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Your name").Show()
	mode, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Create a room or join one?").
		WithOptions([]string{"create", "join random", "join by id"}).Show()

	var resp struct {
		GameID   string `json:"gameId"`
		PlayerID string `json:"playerId"`
		Token    string `json:"token"`
	}
	switch mode {
	case "create":
		players, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Players").WithDefaultValue("2").Show()
		rounds, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Rounds").WithDefaultValue("3").Show()
		var maxPlayers, totalRounds int
		fmt.Sscanf(players, "%d", &maxPlayers)
		fmt.Sscanf(rounds, "%d", &totalRounds)
		if err := c.post("/games", map[string]interface{}{
			"playerName": name, "maxPlayers": maxPlayers, "rounds": totalRounds,
		}, &resp); err != nil {
			pterm.Error.Printfln("create failed: %v", err)
			return
		}
	case "join random":
		if err := c.post("/games/random/join", map[string]string{"playerName": name}, &resp); err != nil {
			pterm.Error.Printfln("join failed: %v", err)
			return
		}
	default:
		id, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Room id").Show()
		resp.GameID = id
		if err := c.post("/games/"+id+"/join", map[string]string{"playerName": name}, &resp); err != nil {
			pterm.Error.Printfln("join failed: %v", err)
			return
		}
		if resp.GameID == "" {
			resp.GameID = id
		}
	}
	c.gameID = resp.GameID
	c.player = resp.PlayerID
	c.token = resp.Token
	pterm.Success.Printfln("Seated in room %s", c.gameID)

	var last int64
	for {
		snap, err := c.poll(last)
		if err != nil {
			pterm.Error.Printfln("poll failed: %v", err)
			return
		}
		if snap == nil {
			time.Sleep(300 * time.Millisecond)
			continue
		}
		last = snap.LastUpdate
		render(snap, name)

		if snap.Finished {
			again, _ := pterm.DefaultInteractiveConfirm.WithDefaultText("Play again?").Show()
			if !again {
				return
			}
			if err := c.post("/games/"+c.gameID+"/restart", map[string]string{}, nil); err != nil {
				pterm.Error.Printfln("restart failed: %v", err)
				return
			}
			if err := c.post("/games/"+c.gameID+"/start", map[string]string{}, nil); err != nil {
				pterm.Error.Printfln("start failed: %v", err)
			}
			continue
		}

		if !snap.Started && !snap.Countdown {
			if len(snap.Players) == snap.MaxPlayers {
				if err := c.post("/games/"+c.gameID+"/start", map[string]string{}, nil); err != nil {
					// Someone else may have started it first; keep polling.
					pterm.Info.Printfln("start: %v", err)
				}
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if snap.Turn == name {
			action, _ := pterm.DefaultInteractiveSelect.
				WithDefaultText("Your move").
				WithOptions([]string{"hit", "stand"}).Show()
			if err := c.post("/games/"+c.gameID+"/"+action, map[string]string{"playerId": c.player}, nil); err != nil {
				pterm.Error.Printfln("%s failed: %v", action, err)
			}
		}
	}
}
