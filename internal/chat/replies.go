package chat

import (
	"fmt"
	"strings"

	"Portfolio/internal/constants"
)

// ctaButton - подпись кнопки формы лида в виджете.
const ctaButton = `**"💼 Interested in Working Together?"**`

func (e *Engine) greetingReply(Input) string {
	return fmt.Sprintf(`Hello! 👋 Welcome to %s's Portfolio!

I'm %s's personal AI assistant, here to help you learn about:
✨ Skills & expertise
💼 Professional experience
🚀 Projects built
🤝 How to work together

What would you like to know? Feel free to ask anything!`, e.profile.Name, e.profile.FirstName())
}

func (e *Engine) aboutReply(in Input) string {
	p := e.profile
	return fmt.Sprintf(`**%s** is a passionate %s with %s years of hands-on experience in building modern, scalable web applications.

🎯 **What %s Does:**
• Builds end-to-end web applications
• Creates responsive, user-friendly interfaces
• Develops robust backend APIs & databases
• Integrates AI features into applications

📊 **Portfolio Stats:**
• %d+ Professional Roles
• %d+ Completed Projects

Would you like to discuss a project? Click the %s button below!`,
		p.Name, p.Title, p.YearsExperience, p.FirstName(), len(in.Experiences), len(in.Projects), ctaButton)
}

func (e *Engine) skillsReply(Input) string {
	return fmt.Sprintf(`**%s's Technical Expertise:**

🎨 **Frontend Development:**
• React.js - Dynamic, component-based UIs
• JavaScript (ES6+) - Modern JS features
• HTML5 & CSS3 - Semantic, accessible markup
• Responsive Design - Mobile-first approach

⚙️ **Backend Development:**
• Node.js & Express.js - Scalable server-side apps
• RESTful API Design - Clean, efficient endpoints
• Authentication (JWT) - Secure user management

🗄️ **Database:**
• MongoDB & PostgreSQL - Efficient data modeling

🛠️ **Tools & Platforms:**
• Git & GitHub - Version control
• Vercel - Deployment & hosting
• AI Integration - Smart features

**Ready to leverage these skills for your project?** Let me know what you're building!`, e.profile.FirstName())
}

// truncate обрезает строку до n символов (рун) и добавляет многоточие, если что-то отрезано.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

func (e *Engine) projectsReply(in Input) string {
	name := e.profile.FirstName()
	if len(in.Projects) == 0 {
		return fmt.Sprintf(`%s has built multiple full-stack applications. Check out the **Projects section** on this website to see the work!

**Want something built for you?** Click the %s button!`, name, ctaButton)
	}

	limit := min(len(in.Projects), constants.ProjectsPreviewLimit)
	items := make([]string, 0, limit)
	for i, p := range in.Projects[:limit] {
		items = append(items, fmt.Sprintf("**%d. %s**\n   %s", i+1, p.Title, truncate(p.Description, constants.DescriptionPreviewLen)))
	}

	return fmt.Sprintf(`**%s's Featured Projects:**

%s

📂 Check out the **Projects section** below to explore all %d projects with live demos!

**Interested in something similar?** Let's discuss your project idea!`, name, strings.Join(items, "\n\n"), len(in.Projects))
}

func (e *Engine) experienceReply(in Input) string {
	name := e.profile.FirstName()
	if len(in.Experiences) == 0 {
		return fmt.Sprintf(`%s has **%s years** of professional experience as a %s. Check the **Experience section** for details!`,
			name, e.profile.YearsExperience, e.profile.Title)
	}

	items := make([]string, 0, len(in.Experiences))
	for _, x := range in.Experiences {
		line := fmt.Sprintf("**%s** at %s", x.Position, x.Company)
		if x.Current {
			line += " *(Current)*"
		}
		items = append(items, line)
	}

	return fmt.Sprintf(`**%s's Professional Experience:**

• %s

📈 **%s years** of building production-ready applications, solving complex problems, and delivering quality solutions.

**Want to add %s to your team?** Let's connect!`, name, strings.Join(items, "\n• "), e.profile.YearsExperience, name)
}

func (e *Engine) hireReply(Input) string {
	p := e.profile
	return fmt.Sprintf(`That's great! 🎉 %s would love to help with your project!

**Here's how to get started:**

1️⃣ **Fill the form** - Click %s button below
2️⃣ **Share details** - Tell us about your project, budget, and timeline
3️⃣ **Get a proposal** - %s will review and respond within %s

📧 **Quick Contact:**
• Email: %s
• LinkedIn: %s

**Don't hesitate** - fill out the form below and let's make your project happen! 🚀`,
		p.FirstName(), ctaButton, p.FirstName(), p.ResponseTime, p.Email, p.LinkedIn)
}

func (e *Engine) callReply(Input) string {
	p := e.profile
	return fmt.Sprintf(`📞 **Want to schedule a call with %s?**

**Options to connect:**

1️⃣ **Email First** (Recommended)
   Send your availability to: **%s**
   Include your timezone and preferred time slots.

2️⃣ **LinkedIn Message**
   Connect on LinkedIn: %s
   Send a direct message with your request.

3️⃣ **Fill the Contact Form**
   Use the %s button
   Mention "Schedule a Call" in your message.

**%s typically responds within %s!**

What would you like to discuss in the call?`, p.FirstName(), p.Email, p.LinkedIn, ctaButton, p.FirstName(), p.ResponseTime)
}

func (e *Engine) pricingReply(Input) string {
	return fmt.Sprintf(`💰 **Pricing Information**

%s's pricing depends on:
• Project scope & complexity
• Timeline requirements
• Features & integrations needed

**To get an accurate quote:**

1️⃣ Click %s below
2️⃣ Describe your project requirements
3️⃣ Include your budget range & timeline
4️⃣ %s will review and send a detailed proposal

**Ready to get started?** Fill out the form below! 📝`, e.profile.FirstName(), ctaButton, e.profile.FirstName())
}

func (e *Engine) contactReply(Input) string {
	p := e.profile
	return fmt.Sprintf(`📬 **Contact %s:**

📧 **Email:** %s
🔗 **LinkedIn:** %s
🌐 **Portfolio:** %s

**For Project Inquiries:**
Use the %s button below to share your project details!

**Response Time:** Usually within %s ⏰`, p.FirstName(), p.Email, p.LinkedIn, p.Website, ctaButton, p.ResponseTime)
}

func (e *Engine) availabilityReply(in Input) string {
	status := "Currently **available** for new opportunities!"
	for _, x := range in.Experiences {
		if x.Current {
			status = "Currently working professionally but **open to freelance projects!**"
			break
		}
	}
	return fmt.Sprintf(`📅 **%s's Availability**

%s

**For New Projects:**
• Freelance work ✅
• Contract projects ✅
• Consultation calls ✅

**Response Time:** %s

**Interested?** Click %s and let's discuss your timeline!`, e.profile.FirstName(), status, e.profile.ResponseTime, ctaButton)
}

func (e *Engine) stackReply(Input) string {
	return fmt.Sprintf(`🔷 **Yes! %s specializes in the MERN Stack:**

• **M**ongoDB - NoSQL database
• **E**xpress.js - Backend framework
• **R**eact.js - Frontend library
• **N**ode.js - Runtime environment

**Additional Expertise:**
• REST API Development
• JWT Authentication
• AI Feature Integration

**Have a project in mind?** Let's discuss it!`, e.profile.FirstName())
}

func (e *Engine) thanksReply(Input) string {
	return fmt.Sprintf(`You're welcome! 😊

Feel free to:
• Ask more questions about %s
• Explore the portfolio sections below
• Click %s for project inquiries

I'm here to help! Have a great day! 🌟`, e.profile.FirstName(), ctaButton)
}

func (e *Engine) goodbyeReply(Input) string {
	return fmt.Sprintf(`Goodbye! 👋

Before you go, remember:
📧 Email: %s
🔗 LinkedIn: %s

Feel free to come back anytime! Have a wonderful day! 🌟`, e.profile.Email, e.profile.LinkedIn)
}

func (e *Engine) defaultReply() string {
	name := e.profile.FirstName()
	return fmt.Sprintf(`I'm here to help! 😊

**Ask me about:**

💡 **Skills & Expertise** - "What are %s's skills?"
📁 **Projects** - "Show me the projects"
💼 **Experience** - "Tell me about the experience"
📧 **Contact** - "How can I reach out?"
🤝 **Collaboration** - "I want to hire %s"
📞 **Schedule a Call** - "Can I schedule a call?"
💰 **Pricing** - "What are the rates?"

**Or click %s** to discuss your project directly!

What would you like to know?`, name, name, ctaButton)
}

// FallbackReply - ответ, когда обмен сообщениями не удалось сохранить.
func FallbackReply(email string) string {
	return fmt.Sprintf("Sorry, I'm having trouble right now. Please try again in a moment, or reach out directly at %s.", email)
}
