package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ivlev/slidesync/internal/remote"
	"github.com/ivlev/slidesync/internal/sched"
)

// errQuit завершает показ по клавише q
var errQuit = errors.New("quit")

// parseKey превращает строку ввода в команду навигации
func parseKey(line string) (cmd remote.Command, quit bool, err error) {
	key := strings.ToLower(strings.TrimSpace(line))
	switch key {
	case "", "n":
		return remote.Command{Action: remote.ActionNext}, false, nil
	case "p":
		return remote.Command{Action: remote.ActionPrev}, false, nil
	case "f":
		return remote.Command{Action: remote.ActionFirst}, false, nil
	case "l":
		return remote.Command{Action: remote.ActionLast}, false, nil
	case "q":
		return remote.Command{}, true, nil
	}

	n, convErr := strconv.Atoi(key)
	if convErr != nil || n < 1 {
		return remote.Command{}, false, fmt.Errorf("неизвестная клавиша %q", key)
	}
	return remote.Command{Action: remote.ActionGoTo, Slide: n}, false, nil
}

// readKeys читает команды из in и выполняет их на планировщике s.
// Возвращает errQuit по q и nil при отмене ctx. Закрытый ввод не останавливает показ
func readKeys(ctx context.Context, in io.Reader, s sched.Scheduler, nav remote.Navigator, log *slog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			cmd, quit, err := parseKey(line)
			if err != nil {
				fmt.Printf("[!] %v\n", err)
				continue
			}
			if quit {
				return errQuit
			}
			s.Post(func() {
				if err := cmd.Apply(nav); err != nil {
					log.Warn("navigation failed", "action", cmd.Action, "error", err)
				}
			})
		}
	}
}
