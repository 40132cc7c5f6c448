package auth

import (
	"fmt"
	"strings"
)

// ShowAPIKeyGuide displays step-by-step instructions for obtaining Flickr API credentials
func ShowAPIKeyGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 FLICKR API KEY GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs a Flickr API key and secret to call the REST API.")
	fmt.Println("Follow these steps to request them:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Request an API key")
	fmt.Println("   - Go to https://www.flickr.com/services/apps/create/")
	fmt.Println("   - Log in with your Flickr account")
	fmt.Println("   - Choose 'Apply for a non-commercial key'")
	fmt.Println("   - Fill in a name and short description for the application")
	fmt.Println()

	fmt.Println("🔑 STEP 2: Copy the credentials")
	fmt.Println("   - The confirmation page shows a 'Key' and a 'Secret'")
	fmt.Println("   - Both are hex strings; copy them exactly, without quotes")
	fmt.Println()

	fmt.Println("⚙️  STEP 3: Make them available to photonotes")
	fmt.Println("   - Put them in your config file:")
	fmt.Println("       flickr:")
	fmt.Println("         api_key: \"...\"")
	fmt.Println("         api_secret: \"...\"")
	fmt.Println("   - Or export them as environment variables:")
	fmt.Println("       export PHOTONOTES_API_KEY=...")
	fmt.Println("       export PHOTONOTES_API_SECRET=...")
	fmt.Println()

	fmt.Println("🔐 STEP 4: Authorize the tool (optional)")
	fmt.Println("   - Public photos need no authorization, the key alone is enough")
	fmt.Println("   - To read private photos run: photonotes authenticate --permissions read")
	fmt.Println("   - The command prints an authorization URL; open it, confirm, and")
	fmt.Println("     paste the 9-digit verifier code back into the prompt")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • The secret and the OAuth tokens give access to your Flickr account")
	fmt.Println("   • NEVER share them or commit them to version control")
	fmt.Println("   • Store them securely (this tool encrypts saved sessions)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowAuthorizeHint shows a condensed version for experienced users
func ShowAuthorizeHint() {
	fmt.Println("\n🔐 Quick Guide: photonotes authenticate --permissions read → open the printed URL → paste the verifier")
	fmt.Println("   Need: api_key and api_secret in the config (https://www.flickr.com/services/apps/create/)")
	fmt.Println("   Type 'help' for detailed instructions")
}
