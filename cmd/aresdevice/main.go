// Command aresdevice manages the local device registry: list, add,
// remove, and set-default, matching original_source/common/device's
// manager CLI surface over the devicestore package.
package main

import (
	"fmt"
	"os"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/cmd/internal/clicommon"
	"github.com/webosbrew/ares-core/device"
)

func main() {
	app := kingpin.New("aresdevice", "Manage the webOS device registry")

	list := app.Command("list", "List registered devices")

	add := app.Command("add", "Register a device")
	var d device.Device
	var privateKey, password, passphrase string
	add.Arg("name", "Device name").Required().StringVar(&d.Name)
	add.Flag("host", "Device hostname or address").Required().StringVar(&d.Host)
	add.Flag("port", "SSH port").Default("22").IntVar(&d.Port)
	add.Flag("username", "SSH username").Default("root").StringVar(&d.Username)
	add.Flag("password", "SSH password").StringVar(&password)
	add.Flag("private-key", "Private key (store name, path, or raw PEM)").StringVar(&privateKey)
	add.Flag("passphrase", "Private key passphrase").StringVar(&passphrase)
	add.Flag("default", "Make this the default device").BoolVar(&d.Default)
	add.Flag("description", "Free-text description").StringVar(&d.Description)

	remove := app.Command("remove", "Remove a registered device")
	var removeName string
	remove.Arg("name", "Device name").Required().StringVar(&removeName)

	setDefault := app.Command("default", "Set the default device")
	var defaultName string
	setDefault.Arg("name", "Device name").Required().StringVar(&defaultName)

	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case list.FullCommand():
		runList()
	case add.FullCommand():
		if privateKey != "" {
			ref := device.NewPrivateKeyRef(privateKey)
			d.PrivateKey = &ref
		}
		if password != "" {
			d.Password = &password
		}
		if passphrase != "" {
			d.Passphrase = &passphrase
		}
		runAdd(d)
	case remove.FullCommand():
		runRemove(removeName)
	case setDefault.FullCommand():
		runSetDefault(defaultName)
	}
}

func runList() {
	store, err := clicommon.OpenStore()
	if err != nil {
		clicommon.Fatal(err)
	}
	for _, d := range store.List() {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s@%s:%d\n", marker, d.Name, d.Username, d.Host, d.PortOrDefault())
	}
}

func runAdd(d device.Device) {
	store, err := clicommon.OpenStore()
	if err != nil {
		clicommon.Fatal(err)
	}
	if err := store.Add(d); err != nil {
		clicommon.Fatal(trace.Wrap(err))
	}
}

func runRemove(name string) {
	store, err := clicommon.OpenStore()
	if err != nil {
		clicommon.Fatal(err)
	}
	if err := store.Remove(name); err != nil {
		clicommon.Fatal(trace.Wrap(err))
	}
}

func runSetDefault(name string) {
	store, err := clicommon.OpenStore()
	if err != nil {
		clicommon.Fatal(err)
	}
	if err := store.SetDefault(name); err != nil {
		clicommon.Fatal(trace.Wrap(err))
	}
}
