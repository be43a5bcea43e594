package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/earthview/globe/internal/api"
	"github.com/earthview/globe/internal/config"
	"github.com/earthview/globe/internal/descriptor"
	"github.com/earthview/globe/internal/geo"
	"github.com/earthview/globe/pkg/core"
	"github.com/spf13/pflag"
)

const usage = `usage: earthview <command> [flags]

commands:
  serve                       run the server (default)
  encode --x --y --z ...      print the descriptor of a camera
  decode <descriptor>         print the camera of a descriptor
  frame <lat,lon>             print the descriptor that frames a coordinate
  health                      check a running server
  viewpoints list             list saved viewpoints
  viewpoints get <name>       show one viewpoint
  viewpoints save <name> <descriptor>
  viewpoints upload <export file>
`

func runCLI(args []string, out io.Writer) error {
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "encode":
		return cmdEncode(rest, out)
	case "decode":
		return cmdDecode(rest, out)
	case "frame":
		return cmdFrame(rest, out)
	case "health":
		return cmdHealth(rest, out)
	case "viewpoints":
		return cmdViewpoints(rest, out)
	case "help", "-h", "--help":
		_, err := io.WriteString(out, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func shareRootFlag(fs *pflag.FlagSet) *string {
	config.LoadDefaults()
	return fs.String("share-root", config.GetServerConfig().ShareRoot, "root of printed share links")
}

func cmdEncode(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	x := fs.Float64("x", 0, "camera x")
	y := fs.Float64("y", 0, "camera y")
	z := fs.Float64("z", 0, "camera z")
	roll := fs.Float64("roll", 0, "roll in degrees")
	fov := fs.Float64("fov", core.DefaultFov, "field of view in degrees")
	root := shareRootFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	camera := core.CameraState{Position: core.Vec3{X: *x, Y: *y, Z: *z}, RollDeg: *roll}
	camera.SetFov(*fov)
	return printDescriptor(out, camera, *root)
}

func cmdDecode(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("decode takes exactly one descriptor")
	}
	camera, err := descriptor.Parse(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(camera)
}

func cmdFrame(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("frame", pflag.ContinueOnError)
	fov := fs.Float64("fov", core.DefaultFov, "field of view in degrees")
	root := shareRootFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("frame takes one lat,lon argument")
	}

	lat, lon, err := geo.ParseLatLon(fs.Arg(0))
	if err != nil {
		return err
	}
	marker := geo.LatLonToVector3(lat, lon, geo.MarkerRadius)
	camera := core.NewCameraState(geo.FocusPosition(marker))
	camera.SetFov(*fov)
	return printDescriptor(out, camera, *root)
}

func printDescriptor(out io.Writer, camera core.CameraState, root string) error {
	code := descriptor.Encode(camera)
	_, err := fmt.Fprintf(out, "%s\n%s\n", code, descriptor.ShareURL(root, code))
	return err
}

func serverFlag(fs *pflag.FlagSet) *string {
	return fs.String("server", "http://localhost:8080", "base URL of a running server")
}

func cmdHealth(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("health", pflag.ContinueOnError)
	server := serverFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := api.New(*server).Healthcheck(context.Background())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s (%d active sessions)\n", resp.Status, resp.Sessions)
	return err
}

func cmdViewpoints(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("viewpoints", pflag.ContinueOnError)
	server := serverFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("viewpoints needs a subcommand: list, get, save, upload")
	}

	client := api.New(*server)
	ctx := context.Background()
	sub, rest := fs.Arg(0), fs.Args()[1:]

	switch sub {
	case "list":
		list, err := client.ListViewpoints(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTOR")
		for _, vp := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", vp.ID, vp.Name, vp.Descriptor)
		}
		return tw.Flush()

	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("viewpoints get takes one name")
		}
		vp, err := client.GetViewpoint(ctx, rest[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(vp)

	case "save":
		if len(rest) != 2 {
			return fmt.Errorf("viewpoints save takes a name and a descriptor")
		}
		vp, err := client.SaveViewpoint(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "saved %s as %s\n", vp.Name, vp.Descriptor)
		return err

	case "upload":
		if len(rest) != 1 {
			return fmt.Errorf("viewpoints upload takes one export file")
		}
		n, err := client.Upload(ctx, rest[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "uploaded %d viewpoints\n", n)
		return err

	default:
		return fmt.Errorf("unknown viewpoints subcommand %q", sub)
	}
}
