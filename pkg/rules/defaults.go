package rules

import "sync"

// Categories produced outside the rule table.
const (
	CategoryInfrastructure = "Infrastructure"
	CategoryAPI            = "API"
	CategoryAnalytics      = "Analytics"
	CategoryUnknown        = "Unknown"
)

// Domain-shape fallbacks.
var (
	CDNStatic  = Descriptor{Name: "CDN/Static", Icon: "📦", Category: CategoryInfrastructure}
	APIService = Descriptor{Name: "API Service", Icon: "🔌", Category: CategoryAPI}
	Analytics  = Descriptor{Name: "Analytics", Icon: "📊", Category: CategoryAnalytics}
)

var defaultRules = []Rule{
	// Browsers
	{
		Domains:    []string{"google.com", "bing.com", "baidu.com", "duckduckgo.com"},
		UserAgents: []string{"Chrome", "Firefox", "Safari", "Edge"},
		App:        Descriptor{"Web Browser", "🌐", "Browser"},
	},

	// Social
	{Domains: []string{"twitter.com", "x.com", "t.co"}, App: Descriptor{"Twitter/X", "🐦", "Social"}},
	{Domains: []string{"facebook.com", "fb.com", "instagram.com"}, App: Descriptor{"Meta Apps", "📘", "Social"}},
	{Domains: []string{"linkedin.com"}, App: Descriptor{"LinkedIn", "💼", "Social"}},
	{Domains: []string{"tiktok.com", "bytedance.com"}, App: Descriptor{"TikTok", "🎵", "Social"}},
	{Domains: []string{"weibo.com", "sina.com.cn"}, App: Descriptor{"Weibo", "🐦", "Social"}},

	// Music
	{Domains: []string{"music.163.com", "netease.com"}, App: Descriptor{"NetEase Music", "🎵", "Music"}},
	{Domains: []string{"spotify.com", "scdn.co"}, App: Descriptor{"Spotify", "🎵", "Music"}},
	{Domains: []string{"music.apple.com", "itunes.apple.com"}, App: Descriptor{"Apple Music", "🎵", "Music"}},
	{Domains: []string{"music.youtube.com"}, App: Descriptor{"YouTube Music", "🎵", "Music"}},

	// Video
	{Domains: []string{"youtube.com", "youtu.be", "googlevideo.com"}, App: Descriptor{"YouTube", "📺", "Video"}},
	{Domains: []string{"netflix.com", "nflxvideo.net"}, App: Descriptor{"Netflix", "📺", "Video"}},
	{Domains: []string{"bilibili.com", "bilivideo.com"}, App: Descriptor{"Bilibili", "📺", "Video"}},
	{Domains: []string{"twitch.tv", "ttvnw.net"}, App: Descriptor{"Twitch", "📺", "Video"}},

	// Office
	{Domains: []string{"office.com", "outlook.com", "sharepoint.com", "onedrive.com"}, App: Descriptor{"Microsoft Office", "📄", "Office"}},
	{
		Domains:    []string{"google.com", "googleapis.com", "googleusercontent.com"},
		UserAgents: []string{"Google"},
		App:        Descriptor{"Google Workspace", "📄", "Office"},
	},
	{Domains: []string{"slack.com", "slack-edge.com"}, App: Descriptor{"Slack", "💬", "Office"}},
	{Domains: []string{"zoom.us", "zoom.com"}, App: Descriptor{"Zoom", "📹", "Office"}},
	{Domains: []string{"teams.microsoft.com"}, App: Descriptor{"Microsoft Teams", "💬", "Office"}},

	// Development
	{Domains: []string{"github.com", "githubusercontent.com"}, App: Descriptor{"GitHub", "🐙", "Development"}},
	{Domains: []string{"gitlab.com"}, App: Descriptor{"GitLab", "🦊", "Development"}},
	{Domains: []string{"stackoverflow.com", "stackexchange.com"}, App: Descriptor{"Stack Overflow", "📚", "Development"}},
	{Domains: []string{"npmjs.com", "npm.im"}, App: Descriptor{"NPM", "📦", "Development"}},

	// Gaming
	{Domains: []string{"steam.com", "steamcommunity.com", "steamstatic.com"}, App: Descriptor{"Steam", "🎮", "Gaming"}},
	{Domains: []string{"epicgames.com", "unrealengine.com"}, App: Descriptor{"Epic Games", "🎮", "Gaming"}},
	{Domains: []string{"battle.net", "blizzard.com"}, App: Descriptor{"Battle.net", "🎮", "Gaming"}},

	// Shopping
	{Domains: []string{"amazon.com", "amazon.cn", "amazonaws.com"}, App: Descriptor{"Amazon", "🛒", "Shopping"}},
	{Domains: []string{"taobao.com", "tmall.com", "alibaba.com"}, App: Descriptor{"Alibaba", "🛒", "Shopping"}},
	{Domains: []string{"jd.com", "360buyimg.com"}, App: Descriptor{"JD.com", "🛒", "Shopping"}},

	// News
	{Domains: []string{"reddit.com", "redd.it"}, App: Descriptor{"Reddit", "📰", "News"}},
	{Domains: []string{"news.ycombinator.com"}, App: Descriptor{"Hacker News", "📰", "News"}},

	// Cloud
	{Domains: []string{"icloud.com", "apple.com"}, App: Descriptor{"iCloud", "☁️", "Cloud"}},
	{Domains: []string{"dropbox.com", "dropboxapi.com"}, App: Descriptor{"Dropbox", "☁️", "Cloud"}},

	// Communication
	{Domains: []string{"whatsapp.com", "whatsapp.net"}, App: Descriptor{"WhatsApp", "💬", "Communication"}},
	{Domains: []string{"telegram.org", "telegram.me"}, App: Descriptor{"Telegram", "💬", "Communication"}},
	{Domains: []string{"discord.com", "discordapp.com"}, App: Descriptor{"Discord", "💬", "Communication"}},

	// Regional apps. WeChat sits ahead of QQ because its hosts live under qq.com.
	{Domains: []string{"weixin.qq.com", "wechat.com", "servicewechat.com"}, App: Descriptor{"WeChat", "💬", "Communication"}},
	{Domains: []string{"qq.com", "gtimg.cn", "qpic.cn"}, App: Descriptor{"QQ", "🐧", "Social"}},
	{Domains: []string{"alipay.com", "alipayobjects.com"}, App: Descriptor{"Alipay", "💳", "Finance"}},
	{Domains: []string{"douyin.com", "douyinpic.com", "amemv.com"}, App: Descriptor{"Douyin", "🎵", "Video"}},
	{Domains: []string{"xiaohongshu.com", "xhscdn.com"}, App: Descriptor{"Xiaohongshu", "📕", "Social"}},
	{Domains: []string{"dingtalk.com"}, App: Descriptor{"DingTalk", "📌", "Office"}},
	{Domains: []string{"feishu.cn", "larksuite.com"}, App: Descriptor{"Feishu", "🪶", "Office"}},
	{Domains: []string{"zhihu.com", "zhimg.com"}, App: Descriptor{"Zhihu", "📰", "News"}},

	// System
	{
		Domains:    []string{"apple.com", "icloud.com", "mzstatic.com"},
		UserAgents: []string{"Darwin", "CFNetwork"},
		App:        Descriptor{"macOS System", "🍎", "System"},
	},
	{
		Domains:    []string{"microsoft.com", "windows.com", "msftconnecttest.com"},
		UserAgents: []string{"Windows"},
		App:        Descriptor{"Windows System", "🪟", "System"},
	},
}

var (
	defaultOnce sync.Once
	defaultSet  *RuleSet
)

// Default returns the built-in rule set. The result is shared.
func Default() *RuleSet {
	defaultOnce.Do(func() {
		defaultSet = NewRuleSet(defaultRules)
	})
	return defaultSet
}

const (
	browser       = "Browser"
	development   = "Development"
	communication = "Communication"
)

// DefaultSignatures returns the built-in user-agent signatures. Messaging
// clients come first because they embed browser tokens; Edge and Opera
// precede Chrome, and Chrome precedes Safari, for the same reason.
func DefaultSignatures() []Signature {
	return []Signature{
		// Messaging clients
		{Substrings: []string{"micromessenger"}, App: Descriptor{"WeChat", "💬", communication}},
		{Substrings: []string{" qq/"}, App: Descriptor{"QQ", "🐧", "Social"}},
		{Substrings: []string{"dingtalk"}, App: Descriptor{"DingTalk", "📌", "Office"}},
		{Substrings: []string{"feishu", "lark/"}, App: Descriptor{"Feishu", "🪶", "Office"}},
		{Substrings: []string{"telegram"}, App: Descriptor{"Telegram", "✈️", communication}},
		{Substrings: []string{"whatsapp"}, App: Descriptor{"WhatsApp", "💬", communication}},
		{Substrings: []string{"slack/", "slack_ssb"}, App: Descriptor{"Slack", "💬", "Office"}},
		{Substrings: []string{"discord/"}, App: Descriptor{"Discord", "🎮", communication}},

		// Developer tools and HTTP libraries
		{Substrings: []string{"postmanruntime", "postman"}, App: Descriptor{"Postman", "📮", development}},
		{Substrings: []string{"insomnia"}, App: Descriptor{"Insomnia", "😴", development}},
		{Substrings: []string{"curl/"}, App: Descriptor{"cURL", "🌀", development}},
		{Substrings: []string{"wget/"}, App: Descriptor{"Wget", "⬇️", development}},
		{Substrings: []string{"httpie/"}, App: Descriptor{"HTTPie", "🥧", development}},
		{Substrings: []string{"python-requests/"}, App: Descriptor{"Python Requests", "🐍", development}},
		{Substrings: []string{"okhttp/"}, App: Descriptor{"OkHttp", "☕", development}},
		{Substrings: []string{"go-http-client/"}, App: Descriptor{"Go HTTP Client", "🐹", development}},

		// Browsers
		{Substrings: []string{"edg/", "edge/", "edga/", "edgios/"}, App: Descriptor{"Edge", "🌊", browser}},
		{Substrings: []string{"opr/", "opera"}, App: Descriptor{"Opera", "🎭", browser}},
		{Substrings: []string{"firefox/", "fxios/"}, App: Descriptor{"Firefox", "🦊", browser}},
		{Substrings: []string{"chrome/", "crios/"}, Exclude: []string{"edg", "opr/"}, App: Descriptor{"Chrome", "🌐", browser}},
		{Substrings: []string{"safari/"}, Exclude: []string{"chrome", "chromium", "crios", "android"}, App: Descriptor{"Safari", "🧭", browser}},
	}
}
