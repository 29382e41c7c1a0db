package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charlesthegreat77/isoforge/internal/config"
	"github.com/charlesthegreat77/isoforge/internal/logger"
	"github.com/charlesthegreat77/isoforge/iso9660"
	"github.com/spf13/cobra"
)

var (
	sourceDir     string
	sourceArchive string
	outputPath    string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an ISO-9660 image from a source directory or tar.xz archive",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "source directory to scan")
	buildCmd.Flags().StringVarP(&sourceArchive, "source-archive", "a", "", "tar.xz archive to scan instead of a directory")
	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "output.iso", "output image path")

	buildCmd.Flags().String("volume-id", "", "volume identifier (overrides config)")
	buildCmd.Flags().Bool("boot", false, "enable El Torito boot support (overrides config)")
	buildCmd.Flags().String("boot-image", "", "boot image file (required with --boot)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if sourceDir == "" && sourceArchive == "" {
		return fmt.Errorf("one of --source or --source-archive is required")
	}
	if sourceDir != "" && sourceArchive != "" {
		return fmt.Errorf("--source and --source-archive are mutually exclusive")
	}

	if cmd.Flags().Changed("volume-id") {
		config.Instance.Volume.Identifier, _ = cmd.Flags().GetString("volume-id")
	}
	if cmd.Flags().Changed("boot") {
		config.Instance.Boot.Enabled, _ = cmd.Flags().GetBool("boot")
	}
	if cmd.Flags().Changed("boot-image") {
		config.Instance.Boot.ImagePath, _ = cmd.Flags().GetString("boot-image")
	}

	root, err := scanSource()
	if err != nil {
		return fmt.Errorf("scanning source: %w", err)
	}

	opts := buildOptionsFromConfig()
	img := &iso9660.DiskImage{
		Primary: &iso9660.Volume{
			SystemIdentifier: config.Instance.Volume.SystemIdentifier,
			VolumeIdentifier: config.Instance.Volume.Identifier,
			Publisher:        config.Instance.Volume.Publisher,
			DataPreparer:     config.Instance.Volume.DataPreparer,
			Application:      config.Instance.Volume.Application,
			Root:             root,
		},
	}

	if config.Instance.Boot.Enabled {
		bc, err := bootCatalogFromConfig()
		if err != nil {
			return fmt.Errorf("configuring boot catalog: %w", err)
		}
		img.Boot = bc
	}

	logger.Log.Infow("building ISO image",
		"output", outputPath,
		"volume_id", img.Primary.VolumeIdentifier,
		"boot_enabled", config.Instance.Boot.Enabled,
	)

	builder := iso9660.NewBuilder(img, opts)
	if err := builder.BuildToFile(outputPath); err != nil {
		return fmt.Errorf("building image: %w", err)
	}

	logger.Log.Infow("image built", "output", outputPath)
	return nil
}

func scanSource() (*iso9660.Directory, error) {
	if sourceArchive != "" {
		f, err := os.Open(sourceArchive)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return iso9660.ScanTarXZ(f)
	}
	return iso9660.ScanDirectory(sourceDir)
}

func buildOptionsFromConfig() *iso9660.BuildOptions {
	opts := iso9660.DefaultOptions()

	switch config.Instance.Level {
	case 1:
		opts.Level = iso9660.Level1
	case 2:
		opts.Level = iso9660.Level2
	default:
		opts.Level = iso9660.Level3
	}

	var flags iso9660.CompatibilityFlags
	f := config.Instance.Flags
	if f.LimitDirectories {
		flags |= iso9660.LimitDirectories
	}
	if f.TruncateFileNames {
		flags |= iso9660.TruncateFileNames
	}
	if f.UpperCaseFileNames {
		flags |= iso9660.UpperCaseFileNames
	}
	if f.ResolveNameConflicts {
		flags |= iso9660.ResolveNameConflicts
	}
	if f.StripIllegalDots {
		flags |= iso9660.StripIllegalDots
	}
	opts.Flags = flags
	return opts
}

func bootCatalogFromConfig() (*iso9660.BootCatalog, error) {
	b := config.Instance.Boot
	if b.ImagePath == "" {
		return nil, fmt.Errorf("boot.image_path is required when boot is enabled")
	}
	info, err := os.Stat(b.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("statting boot image: %w", err)
	}

	mediaType, err := parseMediaType(b.MediaType)
	if err != nil {
		return nil, err
	}
	platform, err := parsePlatform(b.Platform)
	if err != nil {
		return nil, err
	}

	sectorCount := uint16(0)
	if mediaType == iso9660.BootMediaNoEmulation {
		sectorCount = uint16((info.Size() + 511) / 512)
	}

	return &iso9660.BootCatalog{
		PlatformId: platform,
		IdString:   "isoforge",
		InitialEntry: &iso9660.BootCatalogEntry{
			Bootable:    true,
			MediaType:   mediaType,
			SystemType:  0,
			SectorCount: sectorCount,
			Data:        iso9660.NewPathContentSource(b.ImagePath),
		},
	}, nil
}

func parseMediaType(s string) (iso9660.BootMediaType, error) {
	switch strings.ToLower(s) {
	case "", "noemulation":
		return iso9660.BootMediaNoEmulation, nil
	case "floppy12":
		return iso9660.BootMediaFloppy12, nil
	case "floppy144":
		return iso9660.BootMediaFloppy144, nil
	case "floppy288":
		return iso9660.BootMediaFloppy288, nil
	case "harddisk":
		return iso9660.BootMediaHardDisk, nil
	default:
		return 0, fmt.Errorf("unknown boot media type %q", s)
	}
}

func parsePlatform(s string) (iso9660.BootPlatform, error) {
	switch strings.ToLower(s) {
	case "", "x86":
		return iso9660.BootPlatformX86, nil
	case "powerpc":
		return iso9660.BootPlatformPowerPC, nil
	case "mac":
		return iso9660.BootPlatformMac, nil
	default:
		return 0, fmt.Errorf("unknown boot platform %q", s)
	}
}
