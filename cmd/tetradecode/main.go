/*
NAME
  main.go

DESCRIPTION
  tetradecode is a standalone client for the decode pipeline: it tunes a
  file-backed IQ source (or, optionally, first sweeps for a carrier),
  drives the decoder and persists its output, in the same role
  cmd/rv/main.go plays for revid — a thin flag-parsing, logging and
  lifecycle wrapper around the library package.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command tetradecode runs the TETRA decode pipeline against a tunable
// IQ source and persists its output: SDS text/location to the log,
// voice audio to WAV files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/tetraear/decoder/codec/pcmfile"
	"github.com/tetraear/decoder/config"
	"github.com/tetraear/decoder/decoder"
	"github.com/tetraear/decoder/device/sdrfile"
	"github.com/tetraear/decoder/event"
	"github.com/tetraear/decoder/scanner"
)

const pkg = "tetradecode: "

// Logging configuration, following cmd/rv's lumberjack-backed rotating
// file log.
const (
	logPath      = "tetradecode.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func main() {
	iqPath := flag.String("iq", "", "path to a file of interleaved float32 I/Q samples")
	sampleRate := flag.Float64("rate", 1_800_000, "IQ source sample rate in Hz")
	centerFreq := flag.Uint64("freq", 0, "center frequency in Hz; if 0 and -scan is set, a scan picks one")
	scanPreset := flag.String("scan", "", "scan a preset region (eu) for a carrier before tuning")
	codecPath := flag.String("codec", "", "path to the external ACELP decoder executable")
	keyFile := flag.String("keys", "", "path to a TEA key file")
	autoDecrypt := flag.Bool("decrypt", false, "enable trial decryption of encrypted PDUs")
	audioDir := flag.String("audio-dir", "", "directory to write VoiceAudio segments as WAV; empty disables")
	loop := flag.Bool("loop", true, "loop the IQ file on EOF")
	flag.Parse()

	logger := logging.New(logging.Info, &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}, true)

	if *iqPath == "" {
		fmt.Fprintln(os.Stderr, pkg+"-iq is required")
		os.Exit(1)
	}

	src := sdrfile.New(logger, *iqPath, *loop)

	freq := *centerFreq
	if freq == 0 && *scanPreset != "" {
		if err := src.Open(); err != nil {
			logger.Fatal(pkg+"open for scan failed", "error", err.Error())
		}
		sc := scanner.New(src, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		results, err := sc.ScanPreset(ctx, scanner.Region(*scanPreset), config.DefaultScanStepHz, config.DefaultMinPowerDB, config.DefaultMinConfidence)
		cancel()
		src.Close()
		if err != nil {
			logger.Fatal(pkg+"scan failed", "error", err.Error())
		}
		if len(results) == 0 {
			logger.Fatal(pkg + "scan found no candidate carriers")
		}
		freq = results[0].FrequencyHz
		logger.Info(pkg+"scan selected carrier", "freq", freq, "confidence", results[0].Confidence)
	}

	cfg := config.Config{
		SampleRate:   *sampleRate,
		CenterFreq:   freq,
		AutoDecrypt:  *autoDecrypt,
		KeyFile:      *keyFile,
		CodecPath:    *codecPath,
		Logger:       logger,
		LogLevel:     logging.Info,
	}

	d, err := decoder.New(cfg, src)
	if err != nil {
		logger.Fatal(pkg+"decoder.New failed", "error", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	if err := d.Start(ctx); err != nil {
		logger.Fatal(pkg+"Start failed", "error", err.Error())
	}

	go consumeEvents(d, logger, *audioDir)

	<-ctx.Done()
	d.Stop()
}

// consumeEvents logs protocol events and, when audioDir is set, packages
// each VoiceAudio event's PCM as a WAV file via codec/pcmfile.
func consumeEvents(d *decoder.Decoder, l logging.Logger, audioDir string) {
	n := 0
	for ev := range d.Events() {
		switch ev.Kind {
		case event.SdsReassembled:
			l.Info(pkg+"SDS message", "address", ev.Address, "kind", ev.Message.Kind.String(), "text", ev.Message.Text)
		case event.FrameDecoded:
			l.Debug(pkg+"frame decoded", "type", ev.PDU.Type, "encrypted", ev.PDU.Encrypted)
		case event.VoiceAudio:
			if audioDir == "" {
				continue
			}
			out, err := pcmfile.Encode(ev.PCM)
			if err != nil {
				l.Warning(pkg+"wav encode failed", "error", err.Error())
				continue
			}
			n++
			path := filepath.Join(audioDir, fmt.Sprintf("voice-%06d.wav", n))
			if err := os.WriteFile(path, out, 0o644); err != nil {
				l.Warning(pkg+"write wav failed", "error", err.Error())
			}
		case event.DeviceError:
			l.Error(pkg+"device error", "error", ev.Err.Error())
		}
	}
}
