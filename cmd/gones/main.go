package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yoshiomiyamaegones/pkg/gui"
	"github.com/yoshiomiyamaegones/pkg/logger"
	"github.com/yoshiomiyamaegones/pkg/nes"
)

// DebugMode holds the value of the -debug flag. No code reads it, so it
// does not change what the emulator outputs.
var DebugMode bool

func main() {
	var (
		logLevel   = flag.String("log-level", "info", "Log level (off, error, warn, info, debug, trace)")
		logFile    = flag.String("log-file", "", "Log file path (empty for stdout)")
		cpuLog     = flag.Bool("cpu-log", false, "Enable CPU instruction logging")
		ppuLog     = flag.Bool("ppu-log", false, "Enable PPU logging")
		apuLog     = flag.Bool("apu-log", false, "Enable APU logging")
		mapperLog  = flag.Bool("mapper-log", false, "Enable mapper logging")
		headless   = flag.Bool("headless", false, "Run in headless mode for testing")
		testFrames = flag.Int("test-frames", 600, "Number of frames to run in headless mode")
		debugMode  = flag.Bool("debug", false, "Set DebugMode (no code reads it; has no effect)")
	)

	flag.Usage = func() {
		fmt.Printf("Usage: %s [options] <rom_file>\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("\nControls:")
		fmt.Println("  Z - A button")
		fmt.Println("  X - B button")
		fmt.Println("  A - Select")
		fmt.Println("  S - Start")
		fmt.Println("  Arrow keys - D-pad")
		fmt.Println("  ESC - Quit")
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	romFile := flag.Arg(0)

	level := logger.GetLogLevelFromString(*logLevel)
	if err := logger.Initialize(level, *logFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.SetCPULogging(*cpuLog)
	logger.SetPPULogging(*ppuLog)
	logger.SetAPULogging(*apuLog)
	logger.SetMapperLogging(*mapperLog)

	DebugMode = *debugMode

	logger.LogInfo("GoNES Emulator starting...")
	logger.LogInfo("Log level: %s", *logLevel)
	if *logFile != "" {
		logger.LogInfo("Logging to file: %s", *logFile)
	}

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("Failed to open ROM file: %v", err)
	}

	console := nes.New()
	if err := console.Load(file); err != nil {
		file.Close()
		log.Fatalf("Failed to load ROM: %v", err)
	}
	file.Close()
	console.PowerOn()

	logger.LogInfo("Loaded ROM: %s", filepath.Base(romFile))

	sramPath := strings.TrimSuffix(romFile, filepath.Ext(romFile)) + ".sav"
	loadSRAM(console, sramPath)
	defer saveSRAM(console, sramPath)

	if *headless {
		runHeadless(console, *testFrames)
	} else {
		logger.LogInfo("Creating GUI...")
		nesGUI, err := gui.NewNESGUI(console)
		if err != nil {
			log.Fatalf("Failed to create GUI: %v", err)
		}
		defer nesGUI.Destroy()

		logger.LogInfo("Starting emulator...")
		nesGUI.Run()
		logger.LogInfo("Emulator stopped")
	}
}

// loadSRAM restores battery-backed PRG-RAM from disk, if present.
func loadSRAM(console *nes.Console, path string) {
	if !console.Cartridge.BatteryBacked() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	copy(console.Cartridge.PRGRAMBytes(), data)
	logger.LogInfo("Loaded battery save: %s (%d bytes)", path, len(data))
}

// saveSRAM persists battery-backed PRG-RAM to disk.
func saveSRAM(console *nes.Console, path string) {
	if !console.Cartridge.BatteryBacked() {
		return
	}
	ram := console.Cartridge.PRGRAMBytes()
	if len(ram) == 0 {
		return
	}
	if err := os.WriteFile(path, ram, 0644); err != nil {
		logger.LogError("Failed to write battery save %s: %v", path, err)
		return
	}
	logger.LogInfo("Saved battery save: %s (%d bytes)", path, len(ram))
}

func runHeadless(console *nes.Console, maxFrames int) {
	logger.LogInfo("Starting headless mode for %d frames", maxFrames)

	startTime := time.Now()
	for frame := 0; frame < maxFrames; frame++ {
		console.RunFrame()
	}
	elapsed := time.Since(startTime)
	logger.LogInfo("Headless execution completed in %v", elapsed)

	analyzeFrameBuffer(console.Frame(), maxFrames-1)
}

func analyzeFrameBuffer(frameBuffer []uint32, frame int) {
	pixelCounts := make(map[uint32]int)
	totalPixels := len(frameBuffer)

	for _, pixel := range frameBuffer {
		pixelCounts[pixel]++
	}

	logger.LogInfo("Frame %d analysis:", frame)
	logger.LogInfo("  Total pixels: %d", totalPixels)
	logger.LogInfo("  Unique colors: %d", len(pixelCounts))

	nonBgCount := 0
	for color, count := range pixelCounts {
		percentage := float64(count) / float64(totalPixels) * 100
		if percentage > 1.0 {
			logger.LogInfo("  Color 0x%08X: %d pixels (%.1f%%)", color, count, percentage)
		}
		if color != 0xFF050505 {
			nonBgCount += count
		}
	}

	if nonBgCount > 0 {
		logger.LogInfo("  Non-background pixels: %d (%.1f%%)",
			nonBgCount, float64(nonBgCount)/float64(totalPixels)*100)
	} else {
		logger.LogInfo("  All pixels are background color")
	}
}
