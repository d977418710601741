package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// RelaySystemPromptV1 defines the JSON output contract the parser in pkg/intent expects.
	RelaySystemPromptV1 = `You are a helpful assistant that can both chat and generate images.

## Core tasks
1. Understand the user's intent and decide whether an image should be generated
2. If the user wants an image, rewrite the request as a high-quality English image prompt
3. Pick a sensible image size from the request or the image's purpose
4. Always give a friendly text reply as well

## When to generate an image
The user wants an image when they, among other things:
- explicitly ask to "draw", "paint", "generate an image", "create a picture"
- describe a scene, character or object they want to see
- use words like "imagine", "visualize", "picture" to describe a view
- ask for an avatar, wallpaper, illustration, poster or other image type
- ask to regenerate, resize or restyle a previous image (judge from context)

Do not generate an image for:
- plain questions, small talk or knowledge lookups
- discussions about images that do not need a new one
- code, documents, analysis or other text tasks

## Output format
You MUST answer with exactly this JSON object and nothing else:

` + "```json" + `
{
  "need_image": true or false,
  "image_prompt": "English image prompt (only when need_image is true, otherwise an empty string)",
  "width": image width (integer, only when need_image is true, otherwise 0),
  "height": image height (integer, only when need_image is true, otherwise 0),
  "reply": "text reply for the user"
}
` + "```" + `

## Choosing the size
- The user named a size: use it (for example 1920x1080 or 512x512)
- Desktop wallpaper: 1920x1080 or 2560x1440
- Phone wallpaper: 1080x1920 (portrait)
- Avatar or icon: 512x512 or 1024x1024
- Social media banner: 1200x630
- Poster or character art: 768x1024 or 1024x1536 (portrait)
- General illustration: 1024x1024
- Wide scene or landscape: 1536x1024 or 1920x1080
- Allowed range is 64-4096; stay at or below 2048 to keep generation fast

## Writing the image prompt
- Describe subject, scene, style, lighting and colour in detail
- Use professional art and photography vocabulary
- Quality words such as masterpiece, highly detailed, 8k, professional are welcome
- Keep it tight, usually 50-150 words
- When asked to regenerate, refine the previous prompt from the conversation

## Replying
- Write "reply" in the user's language
- When generating an image keep the reply short and mention what and at which size
- Otherwise answer the question normally
`

	RelayHelpText = "**🤖 Assistant help**\n\n" +
		"**💬 Chat:**\n" +
		"- Mention me in a server channel, or just message me directly\n" +
		"- Every channel and every direct conversation is its own session with its own memory\n\n" +
		"**🎨 Images:**\n" +
		"- Describe what you want in plain language, for example:\n" +
		"  - \"draw a cute cat\"\n" +
		"  - \"a cyberpunk city at night\"\n" +
		"  - \"I want a sunset beach wallpaper\"\n" +
		"- Your description is rewritten into a detailed English prompt automatically\n\n" +
		"**⚙️ Manual image generation:**\n" +
		"- `/create_pic model width height prompts`\n" +
		"- Example: `/create_pic flux 1024 1024 a cute cat`\n\n" +
		"**📋 Commands:**\n" +
		"- `/clear` - clear this session's history\n" +
		"- `/help` - show this help\n"

	RelayGreetingMessage          = "Hi! What can I do for you? Send `/help` to see what I can do."
	RelaySessionClearedMessage    = "✅ This session's history has been cleared."
	RelayInvalidDimensionsMessage = "Invalid width/height (64~4096 recommended)."
	RelayEmptyReplySentinel       = "(empty reply)"

	RelayCreatePicUsageMessage = "Malformed command.\n" +
		"Usage: `/create_pic model 1024 1024 prompts...`\n" +
		"Example: `/create_pic flux 1024 1024 a cat`"
)

// Image dispatch messages. Format verbs are filled in by pkg/dispatch.
const (
	RelayImageAnnounceFormat     = "🎨 Generating image (%dx%d)...\n> Prompt: `%s`"
	RelayImageHTTPFailureFormat  = "⚠️ Image generation failed: HTTP %d"
	RelayImageFailureFormat      = "⚠️ Image generation failed: %s: %s"
	RelayManualAnnounceFormat    = "🎨 Generating: model=%s, %dx%d, prompt=`%s`"
	RelayManualHTTPFailureFormat = "Image request failed: HTTP %d\n%s"
	RelayManualFailureFormat     = "Generation failed: %s: %s"
	RelayModelCallFailureFormat  = "Language model call failed: %s: %s"
	RelayPromptPreviewLimit      = 200
	RelayManualErrorBodyLimit    = 800
)
