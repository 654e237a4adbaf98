// Command slidesync presents a deck from the terminal and keeps the animation
// players embedded in its slides in step with the slide on screen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slidesync/internal/config"
	"github.com/ivlev/slidesync/internal/deck"
	"github.com/ivlev/slidesync/internal/engine"
	"github.com/ivlev/slidesync/internal/logging"
	"github.com/ivlev/slidesync/internal/playback"
	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/remote"
	"github.com/ivlev/slidesync/internal/sched"
	"github.com/ivlev/slidesync/internal/source"
	"github.com/ivlev/slidesync/internal/system"
)

// version задается при сборке через -ldflags
var version = "dev"

const defaultDeckDir = "input/pdf"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPtr := flag.String("config", "", "Путь к YAML-конфигу (если пусто, встроенные значения)")
	inputPtr := flag.String("input", "", "Путь к PDF или папке со слайдами (по умолчанию: самый свежий файл в input/pdf/)")
	manifestPtr := flag.String("manifest", "", "Манифест презентации с описанием анимаций")
	writeManifestPtr := flag.String("write-manifest", "", "Записать заготовку манифеста для презентации и выйти")
	startPtr := flag.Int("start", 0, "Номер первого слайда (с 1)")
	logLevelPtr := flag.String("log-level", "", "Уровень логов: debug, info, warn, error")
	remotePtr := flag.Bool("remote", false, "Подключить MQTT-пульт")
	statsPtr := flag.Bool("stats", false, "Вывести статистику воспроизведения при выходе")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		return err
	}
	cfg.BuildVersion = version

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Deck.InputPath = *inputPtr
		case "manifest":
			cfg.Deck.ManifestPath = *manifestPtr
		case "start":
			cfg.Deck.StartSlide = *startPtr
		case "log-level":
			cfg.Logging.Level = *logLevelPtr
		case "remote":
			cfg.Remote.Enabled = *remotePtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, cfg.BuildVersion)

	src, srcPath, err := openSource(cfg.Deck.InputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	// Режим заготовки: только пишем манифест
	if *writeManifestPtr != "" {
		if err := deck.WriteManifest(deck.ScaffoldManifest(src), *writeManifestPtr); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
		fmt.Printf("[+] Манифест записан: %s\n", *writeManifestPtr)
		return nil
	}

	manifestPath := cfg.Deck.ManifestPath
	if manifestPath == "" {
		manifestPath = deck.FindManifest(srcPath)
	}
	manifest := &deck.Manifest{}
	if manifestPath != "" {
		if manifest, err = deck.ReadManifest(manifestPath); err != nil {
			return err
		}
		fmt.Printf("[*] Манифест: %s\n", manifestPath)
	}

	loop := sched.NewLoop(0)

	var elements []*engine.Element
	d, err := deck.Build(src, manifest, func(_ *deck.Slide, p *deck.PlayerManifest) player.Element {
		el := engine.NewElement(loop, elementConfig(p))
		elements = append(elements, el)
		return el
	})
	if err != nil {
		return fmt.Errorf("building deck: %w", err)
	}

	presenter, err := deck.NewPresenter(d, cfg.Deck.StartSlide-1, logger.Logger)
	if err != nil {
		return err
	}
	ctrl := playback.NewController(d, loop, playback.OptionsFromConfig(cfg.Playback), logger.Logger)
	boot := playback.NewBootstrap(presenter, d, ctrl, loop,
		cfg.Playback.ReadyPollInterval, cfg.Playback.ReadyPollLimit, logger.Logger)

	fmt.Printf("[*] Презентация: %d слайдов, %d анимаций\n", d.Len(), len(elements))
	for _, el := range elements {
		logger.Debug("player declared", "player", el.ID(), "src", el.Src())
	}

	if cfg.Remote.Enabled {
		bridge, err := remote.Connect(cfg.Remote, logger.Logger)
		if err != nil {
			return err
		}
		defer bridge.Close()

		ctrl.SetObserver(bridge)
		if err := bridge.Attach(presenter, loop); err != nil {
			return err
		}
		logger.Info("remote attached", "commands", bridge.Topics().Command(), "status", bridge.Topics().Status())

		if qr, err := remote.PairingQR(cfg.Remote); err != nil {
			logger.Warn("pairing code unavailable", "error", err)
		} else {
			fmt.Printf("[*] Пульт: %s\n%s", remote.PairingURL(cfg.Remote), qr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Презентация считается загруженной, когда все анимации с auto="true"
	// успели инициализироваться
	loop.Post(func() {
		var longest time.Duration
		for _, el := range elements {
			el.Mount()
			if el.InitDelay() > longest {
				longest = el.InitDelay()
			}
		}
		loop.AfterFunc(longest, presenter.MarkReady)
		boot.Start()
	})

	printSlide(presenter.CurrentSlide(), d.Len())
	presenter.OnSlideChanged(func(ev deck.SlideContext) {
		printSlide(ev.Current, d.Len())
	})

	fmt.Println("[*] Клавиши: n/enter вперед, p назад, f первый, l последний, <номер> переход, q выход")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return readKeys(gctx, os.Stdin, loop, presenter, logger.With("component", "keys").Logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}

	if cfg.ShowStats {
		printStats(ctrl.Stats())
	}
	return nil
}

// openSource открывает PDF или папку с изображениями и возвращает путь.
// Без -input берется самый свежий PDF из input/pdf
func openSource(input string) (source.Source, string, error) {
	if input == "" {
		latest, err := system.FindLatestPDF(defaultDeckDir)
		if err != nil {
			return nil, "", fmt.Errorf("%w. Положите PDF в %s/ или укажите -input", err, defaultDeckDir)
		}
		input = latest
		fmt.Printf("[*] Выбран файл: %s\n", input)
	}

	var (
		src source.Source
		err error
	)
	if strings.HasSuffix(strings.ToLower(input), ".pdf") {
		src, err = source.NewFitzPDFSource(input)
	} else {
		src, err = source.NewImageSource(input)
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening deck: %w", err)
	}
	return src, input, nil
}

func elementConfig(p *deck.PlayerManifest) engine.ElementConfig {
	attrs := make(map[string]string)
	if p.Loop != "" {
		attrs[player.AttrLoop] = p.Loop
	}
	if p.Auto != "" {
		attrs[player.AttrAuto] = p.Auto
	}
	return engine.ElementConfig{
		ID:        p.ID,
		Src:       p.Src,
		Attrs:     attrs,
		FPS:       p.FPS,
		EndFrame:  p.EndFrame,
		InitDelay: p.InitDelay,
	}
}

func printSlide(s *deck.Slide, total int) {
	if s.Title != "" {
		fmt.Printf("[>] %d/%d %s\n", s.Index+1, total, s.Title)
		return
	}
	fmt.Printf("[>] %d/%d\n", s.Index+1, total)
}

func printStats(st playback.Stats) {
	fmt.Println("[*] Воспроизведение:")
	fmt.Printf("    переходов:           %d\n", st.Transitions)
	fmt.Printf("    сессий запущено:     %d\n", st.SessionsStarted)
	fmt.Printf("    завершено:           %d\n", st.Completions)
	fmt.Printf("    по таймауту:         %d\n", st.SafetyTimeouts)
	fmt.Printf("    прервано:            %d\n", st.TornDown)
	fmt.Printf("    не дождались старта: %d\n", st.AbandonedStarts)
	fmt.Printf("    перезапусков:        %d\n", st.Rewinds)

	ps, err := system.CurrentProcessStats()
	if err != nil {
		fmt.Printf("[!] Статистика процесса недоступна: %v\n", err)
		return
	}
	fmt.Printf("[*] Процесс: %s\n", ps)
}
