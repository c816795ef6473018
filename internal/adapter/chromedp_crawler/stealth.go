package chromedp_crawler

import (
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/proxy"
)

// stealthScript runs before any page script and hides the usual automation markers.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
Object.defineProperty(navigator, 'languages', {get: () => ['zh-CN', 'zh', 'en']});
window.chrome = window.chrome || {runtime: {}};
`

func allocatorOptions(cfg entity.CrawlSessionConfig, id proxy.Identity, execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(1920, 1080),
	)
	if id.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(id.UserAgent))
	}
	if id.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(id.Proxy))
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

// clickScript clicks the first selector that matches an enabled element and reports
// whether it did. Invalid selectors are skipped.
func clickScript(selectors []string) (string, error) {
	encoded, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(function(selectors) {
	for (const sel of selectors) {
		let el;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (!el) continue;
		if (el.disabled || el.classList.contains('disabled') || el.getAttribute('aria-disabled') === 'true') continue;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	}
	return false;
})(%s)`, encoded), nil
}
