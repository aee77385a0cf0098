// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/json"
	"github.com/warthog618/config/pflag"

	"github.com/pipilavvy/spi"
)

// This example performs a loopback smoke test of the SPI controller with
// MOSI jumpered to MISO: a pattern burst several times the FIFO depth is
// clocked out and the received bytes are compared. The register window,
// UIO device and burst length default below but can be altered via
// configuration (env, flag or config file).
func main() {
	cfg := loadConfig()
	mem, err := spi.OpenMem(cfg.GetInt("base"))
	if err != nil {
		panic(err)
	}
	defer mem.Close()
	uio, err := spi.OpenUIO(cfg.GetString("uio"))
	if err != nil {
		panic(err)
	}
	defer uio.Close()
	watcher, err := spi.NewWatcher()
	if err != nil {
		panic(err)
	}
	defer watcher.Close()

	c := spi.New(mem)
	if err = watcher.Register(uio, c.ServiceInterrupt); err != nil {
		panic(err)
	}
	defer watcher.Unregister(uio)

	n := int(cfg.GetUint("length"))
	tx := make([]byte, n)
	for i := range tx {
		tx[i] = byte(i)
	}
	rx := make([]byte, n)
	err = c.Submit(&spi.Transfer{Tx: tx, Rx: rx}, cfg.GetDuration("timeout"))
	if err != nil {
		fmt.Println("transfer failed:", err)
		return
	}
	if !bytes.Equal(tx, rx) {
		fmt.Println("loopback mismatch - MOSI jumpered to MISO?")
		return
	}
	fmt.Printf("looped %d bytes ok\n", n)
}

// Config defines the minimal configuration interface
type Config interface {
	GetInt(k string) int64
	GetUint(k string) uint64
	GetString(k string) string
	GetDuration(k string) time.Duration
}

func loadConfig() Config {
	defaultConfig := map[string]interface{}{
		"base":    0x01c68000,
		"uio":     "/dev/uio0",
		"length":  10 * spi.FifoDepth,
		"timeout": "1s",
	}
	def := dict.New(dict.WithMap(defaultConfig))
	shortFlags := map[byte]string{
		'c': "config-file",
	}
	fget, err := pflag.New(pflag.WithShortFlags(shortFlags))
	if err != nil {
		panic(err)
	}
	// environment next
	eget, err := env.New(env.WithEnvPrefix("LOOPBACK_"))
	if err != nil {
		panic(err)
	}
	// highest priority sources first - flags override environment
	sources := config.NewStack(fget, eget)
	cfg := config.NewConfig(config.Decorate(sources, config.WithDefault(def)))

	// config file may be specified via flag or env, so check for it
	// and if present add it with lower priority than flag and env.
	configFile, err := cfg.GetString("config.file")
	if err == nil {
		// explicitly specified config file - must be there
		jget, err := json.New(json.FromFile(configFile))
		if err != nil {
			panic(err)
		}
		sources.Append(jget)
	} else {
		// implicit and optional default config file
		jget, err := json.New(json.FromFile("loopback.json"))
		if err == nil {
			sources.Append(jget)
		} else {
			if _, ok := err.(*os.PathError); !ok {
				panic(err)
			}
		}
	}
	m := cfg.GetMust("", config.WithPanic())
	return m
}
