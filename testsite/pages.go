package testsite

import "html/template"

var pages = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<meta name="csrf-token" content="{{.Token}}">
	<title>Club Director</title>
	<style>
		body { font-family: sans-serif; margin: 0 0 120px; }
		nav a { margin-right: 1em; }
		.field { margin: 0.5em 0; }
		footer { position: fixed; bottom: 0; width: 100%; height: 60px; background: #eee; }
	</style>
</head>
<body>
	<nav>
		<a href="/">Home</a>
		<a href="/pricing">Pricing</a>
		<a href="/topics">Topics</a>
		<a href="/about">About</a>
		<a href="/contact">Contact</a>
		<a href="/register">Register</a>
	</nav>
	<main>
	{{- if eq .Page "home"}}
		<h1>Run your club without the paperwork</h1>
		<p>Scheduling, payments and member records in one place.</p>
	{{- else if eq .Page "pricing"}}
		<h1>Pricing</h1>
		<p>Start free. Upgrade when your club grows.</p>
	{{- else if eq .Page "topics"}}
		<h1>Topics</h1>
		<ul><li>Scheduling</li><li>Payments</li><li>Member records</li></ul>
	{{- else if eq .Page "about"}}
		<h1>About</h1>
		<p>Built by club volunteers for club volunteers.</p>
	{{- else if eq .Page "terms"}}
		<h1>Terms of Service</h1>
		<p>By using the service you agree to these terms.</p>
	{{- else if eq .Page "privacy"}}
		<h1>Privacy Policy</h1>
		<p>We describe here how your privacy is protected.</p>
	{{- else if eq .Page "contact"}}
		<h1>Contact us</h1>
		{{- if .Success}}<div class="alert alert-success">{{.Success}}</div>{{end}}
		{{- if .Error}}<div class="alert alert-danger">{{.Error}}</div>{{end}}
		<form method="post" action="/contact">
			<div class="field"><input id="contactName" name="name" placeholder="Name"></div>
			<div class="field"><input id="contactEmail" name="email" type="email" placeholder="Email"></div>
			<div class="field"><input id="contactSubject" name="subject" placeholder="Subject"></div>
			<div class="field"><textarea id="contactMessage" name="message" maxlength="1000"></textarea></div>
			<button id="contactSubmitBtn" type="submit">Send</button>
		</form>
	{{- else if eq .Page "register"}}
		<h1>Create your club site</h1>
		<form id="registerForm" onsubmit="return false">
			<fieldset>
				<legend>Company</legend>
				<div class="field"><input id="companyName" name="companyName"></div>
				<div class="field"><input id="email" name="email" type="email"></div>
				<div class="field"><input id="password" name="password" type="password"></div>
				<div class="field"><input id="confirmPassword" name="confirmPassword" type="password"></div>
				<div class="field"><input id="siteName" name="siteName" readonly></div>
				<div class="field"><input id="companyAddress" name="companyAddress"></div>
				<div class="field"><input id="companyAddress2" name="companyAddress2"></div>
				<div class="field"><input id="companyCity" name="companyCity"></div>
				<div class="field"><select id="companyRegionCode" name="companyRegionCode">
					<option value="">State</option>
					{{- range .Regions}}<option value="{{.}}">{{.}}</option>{{end}}
				</select></div>
				<div class="field"><input id="companyZip" name="companyZip"></div>
				<div class="field"><input id="companyPhone" name="companyPhone"></div>
			</fieldset>
			<fieldset>
				<legend>Owner</legend>
				<div class="field"><input id="firstName" name="firstName"></div>
				<div class="field"><input id="lastName" name="lastName"></div>
				<div class="field"><input id="userAddress" name="userAddress"></div>
				<div class="field"><input id="userAddress2" name="userAddress2"></div>
				<div class="field"><input id="userCity" name="userCity"></div>
				<div class="field"><select id="userRegionCode" name="userRegionCode">
					<option value="">State</option>
					{{- range .Regions}}<option value="{{.}}">{{.}}</option>{{end}}
				</select></div>
				<div class="field"><input id="userZip" name="userZip"></div>
				<div class="field"><input id="userPhone" name="userPhone"></div>
			</fieldset>
			<div class="field"><label><input id="agreeTerms" name="agreeTerms" type="checkbox"> I agree to the terms</label></div>
			<button id="registerSubmitBtn" type="submit">Create site</button>
		</form>
	{{- end}}
	</main>
	<footer><a href="/terms-of-service">Terms</a> <a href="/privacy-policy">Privacy</a></footer>
</body>
</html>
`))
