// Command checkinstallation verifies the GitHub App credentials by minting an
// installation token and listing the repositories it can see.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	clientsgithub "ghdash/clients/github"
	"ghdash/config"
	"ghdash/logger"
	"ghdash/services/installations"
)

func main() {
	installationFlag := flag.String("installation", "", "GitHub App installation ID to check")
	flag.Parse()

	log := logger.New(os.Stderr, 0, "text")

	installationID, err := installations.ParseInstallationID(*installationFlag)
	if err != nil {
		log.Error("❌ Invalid -installation flag", "error", err.Error())
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(log)
	if err != nil {
		log.Error("❌ Failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	factory := clientsgithub.NewClientFactory(cfg.GitHubConfig.AppID, cfg.GitHubConfig.AppPrivateKey, log)
	client := clientsgithub.NewGitHubClient(clientsgithub.OAuthConfig{}, factory, cfg.GitHubConfig.AppIDNumber(), log)

	repositories, err := client.ListInstallationRepositories(context.Background(), installationID)
	if err != nil {
		log.Error("❌ Installation check failed", "installation_id", installationID, "error", err.Error())
		os.Exit(1)
	}

	for _, repo := range repositories {
		fmt.Println(repo.FullName)
	}
	log.Info("✅ Installation is reachable", "installation_id", installationID, "repositories", len(repositories))
}
