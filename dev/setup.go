package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	devenv "purchase-automation/dev/env"
	"purchase-automation/internal/db"

	"github.com/playwright-community/playwright-go"
)

func cmd(name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fullCmd := name
	for _, a := range args {
		fullCmd += " "
		fullCmd += a
	}

	fmt.Printf("$ %s\n", fullCmd)
	err := cmd.Run()
	if err != nil {
		os.Exit(1)
	}
}

func InstallBrowsers() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium", "firefox", "webkit"},
		Verbose:  true,
	})
}

func createDb(filename, schema string) error {
	path, err := devenv.ResolvePath(filepath.Join("<dev_state>", filename))
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(schema)
	return err
}

func CreateHistoryDB() error {
	return createDb("history.db", db.Schema)
}

const localConfig = `// local overrides of config.json5, this file is not committed
{
  browser: {
    headless: false,
  },
  log_level: "debug",
  database: {
    file: "<dev_state>/history.db",
  },
  credentials: {
    kingjouet: {
      email: "",
      password: "",
    },
  },
}
`

// CreateLocalConfig writes config.local.json5 unless one already exists.
func CreateLocalConfig() error {
	_, err := os.Stat("config.local.json5")
	if err == nil {
		fmt.Println("config.local.json5 already exists")
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile("config.local.json5", []byte(localConfig), 0600)
}

func PrintConfigLocations() {
	slog.Info("fill in the credentials in config.local.json5 to run purchases as a logged in user, runs are recorded in dev/.state/history.db.")
}
